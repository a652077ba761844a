package compression

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// maxGroupLength is the longest run a single RLE8 group can describe: the
// two literal bytes plus up to 255 repeats.
const maxGroupLength = 257

// CompressRLE8 encodes everything from `input` into `output`. It returns the
// number of bytes written.
func CompressRLE8(input io.Reader, output io.Writer) (int64, error) {
	grouper := NewRunLengthGrouper(input)
	written := int64(0)

	emit := func(chunk []byte) error {
		n, err := output.Write(chunk)
		written += int64(n)
		return err
	}

	for {
		run, err := grouper.GetNextRun()
		if errors.Is(err, io.EOF) {
			return written, nil
		} else if err != nil {
			return written, err
		}

		for run.RunLength >= 2 {
			groupLength := run.RunLength
			if groupLength > maxGroupLength {
				groupLength = maxGroupLength
			}
			if err := emit([]byte{run.Byte, run.Byte, byte(groupLength - 2)}); err != nil {
				return written, err
			}
			run.RunLength -= groupLength
		}

		if run.RunLength == 1 {
			if err := emit([]byte{run.Byte}); err != nil {
				return written, err
			}
		}
	}
}

// DecompressRLE8 decodes RLE8 data from `input` into `output`. It returns the
// number of decoded bytes written.
func DecompressRLE8(input io.Reader, output io.Writer) (int64, error) {
	source := bufio.NewReader(input)
	previous := -1
	written := int64(0)

	for {
		current, err := source.ReadByte()
		if errors.Is(err, io.EOF) {
			return written, nil
		} else if err != nil {
			return written, fmt.Errorf("error reading input: %w", err)
		}

		chunk := []byte{current}
		if int(current) == previous {
			repeats, err := source.ReadByte()
			if errors.Is(err, io.EOF) {
				return written, fmt.Errorf(
					"%w: missing repeat count after two %02x bytes",
					io.ErrUnexpectedEOF,
					current)
			} else if err != nil {
				return written, fmt.Errorf("error reading input: %w", err)
			}

			// The first of the pair was already written on the previous
			// iteration, hence +1 and not +2.
			chunk = bytes.Repeat(chunk, int(repeats)+1)
			previous = -1
		} else {
			previous = int(current)
		}

		n, err := output.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("failed to write to output: %w", err)
		}
	}
}
