package compression

import (
	"bytes"
	"compress/gzip"
	"io"
)

// countingWriter counts the bytes that pass through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// CompressImage compresses a flash image using RLE8 and gzip. It returns the
// number of compressed bytes written to `output`.
func CompressImage(input io.Reader, output io.Writer) (int64, error) {
	counter := &countingWriter{w: output}

	gzWriter, err := gzip.NewWriterLevel(counter, gzip.BestCompression)
	if err != nil {
		return 0, err
	}

	if _, err = CompressRLE8(input, gzWriter); err != nil {
		gzWriter.Close()
		return counter.n, err
	}
	if err = gzWriter.Close(); err != nil {
		return counter.n, err
	}
	return counter.n, nil
}

// DecompressImage takes a gzipped, RLE8-encoded flash image and writes the raw
// bytes to `output`. It returns the decompressed size.
func DecompressImage(input io.Reader, output io.Writer) (int64, error) {
	gzReader, err := gzip.NewReader(input)
	if err != nil {
		return 0, err
	}
	defer gzReader.Close()
	return DecompressRLE8(gzReader, output)
}

// CompressImageToBytes is [CompressImage] returning a new byte slice.
func CompressImageToBytes(input io.Reader) ([]byte, error) {
	var buffer bytes.Buffer
	if _, err := CompressImage(input, &buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DecompressImageToBytes is [DecompressImage] returning a new byte slice.
func DecompressImageToBytes(input io.Reader) ([]byte, error) {
	var buffer bytes.Buffer
	if _, err := DecompressImage(input, &buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
