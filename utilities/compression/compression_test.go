package compression_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	c "github.com/dargueta/norflash/utilities/compression"
	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageTestData() map[string][]byte {
	randomData := make([]byte, 119)
	rand.Read(randomData)

	halfProgrammed := bytes.Repeat([]byte{0xFF}, 8192)
	copy(halfProgrammed, bytes.Repeat([]byte{0x5A, 0x00}, 2048))

	return map[string][]byte{
		"erased":          bytes.Repeat([]byte{0xFF}, 8192),
		"empty":           {},
		"random":          randomData,
		"half programmed": halfProgrammed,
	}
}

func TestImageCompression__RoundTripStream(t *testing.T) {
	for name, sourceData := range imageTestData() {
		t.Run(name, func(t *testing.T) {
			compressedBuffer := make([]byte, 10240)
			compressedWriter := bytewriter.New(compressedBuffer)

			compressedSize, err := c.CompressImage(bytes.NewReader(sourceData), compressedWriter)
			require.NoError(t, err, "unexpected error while compressing")
			t.Logf("image size after compression: %d -> %d", len(sourceData), compressedSize)

			decompressedBuffer := make([]byte, len(sourceData))
			decompressedWriter := bytewriter.New(decompressedBuffer)
			compressedReader := bytes.NewReader(compressedBuffer[:compressedSize])

			n, err := c.DecompressImage(compressedReader, decompressedWriter)
			require.NoError(t, err, "unexpected error while decompressing")
			assert.EqualValues(t, len(sourceData), n, "decompressed image has wrong size")
			assert.Equal(t, sourceData, decompressedBuffer, "decompressed data is wrong")
		})
	}
}

func TestImageCompression__RoundTripBytes(t *testing.T) {
	for name, originalData := range imageTestData() {
		t.Run(name, func(t *testing.T) {
			compressed, err := c.CompressImageToBytes(bytes.NewReader(originalData))
			require.NoError(t, err, "error while compressing")

			decompressed, err := c.DecompressImageToBytes(bytes.NewReader(compressed))
			require.NoError(t, err, "error while decompressing")
			assert.Equal(t, len(originalData), len(decompressed), "decompressed data length is wrong")
			assert.True(t, bytes.Equal(originalData, decompressed), "decompressed data is wrong")
		})
	}
}

// An erased region is the common case and must shrink to almost nothing.
func TestImageCompression__ErasedRegionIsTiny(t *testing.T) {
	compressed, err := c.CompressImageToBytes(bytes.NewReader(bytes.Repeat([]byte{0xFF}, 8192)))
	require.NoError(t, err)
	assert.Less(t, len(compressed), 100)
}

func TestDecompressImage__NotGzip(t *testing.T) {
	_, err := c.DecompressImageToBytes(bytes.NewReader([]byte("definitely not gzip")))
	assert.Error(t, err)
}
