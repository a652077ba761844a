package compression_test

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	c "github.com/dargueta/norflash/utilities/compression"
)

func erasedBytes(n int) []byte {
	return bytes.Repeat([]byte{0xFF}, n)
}

// erasedGroups is the encoding of `full` maximal groups of 0xFF followed by
// the encoding of a shorter run of `tail` bytes (no tail if zero).
func erasedGroups(full int, tail int) []byte {
	encoded := bytes.Repeat([]byte{0xFF, 0xFF, 0xFF}, full)
	switch {
	case tail == 1:
		encoded = append(encoded, 0xFF)
	case tail >= 2:
		encoded = append(encoded, 0xFF, 0xFF, byte(tail-2))
	}
	return encoded
}

func TestCompressRLE8__FlashVectors(t *testing.T) {
	record := append([]byte("BOOT"), erasedBytes(12)...)

	tests := []struct {
		name     string
		input    []byte
		expected []byte
	}{
		{"blank", []byte{}, []byte{}},
		{"single erased byte", erasedBytes(1), erasedGroups(0, 1)},
		{"erased word", erasedBytes(4), erasedGroups(0, 4)},
		{"erased run one short of a group", erasedBytes(256), erasedGroups(0, 256)},
		{"erased run filling one group", erasedBytes(257), erasedGroups(1, 0)},
		{"erased run spilling one byte", erasedBytes(258), erasedGroups(1, 1)},
		{"erased run spilling two bytes", erasedBytes(259), erasedGroups(1, 2)},
		{"erased 4 KiB page", erasedBytes(4096), erasedGroups(15, 241)},
		{
			"record then erased padding",
			record,
			[]byte{'B', 'O', 'O', 0, 'T', 0xFF, 0xFF, 10},
		},
		{
			"programmed zero word before erased tail",
			append([]byte{0, 0, 0, 0}, erasedBytes(28)...),
			[]byte{0, 0, 2, 0xFF, 0xFF, 26},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			output := make([]byte, len(test.expected)+8)
			n, err := c.CompressRLE8(bytes.NewReader(test.input), bytewriter.New(output))
			require.NoError(t, err)
			assert.EqualValues(t, len(test.expected), n, "wrong compressed size")
			assert.Equal(t, test.expected, output[:n])
		})
	}
}

func TestDecompressRLE8__ErasedPage(t *testing.T) {
	var page bytes.Buffer
	n, err := c.DecompressRLE8(bytes.NewReader(erasedGroups(15, 241)), &page)
	require.NoError(t, err)
	assert.EqualValues(t, 4096, n)
	assert.Equal(t, erasedBytes(4096), page.Bytes())
}

// A stream cut off right after a doubled byte is missing its repeat count.
func TestDecompressRLE8__TruncatedRepeatCount(t *testing.T) {
	streams := map[string][]byte{
		"erased pair":          {0xFF, 0xFF},
		"after a full group":   append(erasedGroups(1, 0), 0xFF, 0xFF),
		"after record bytes":   {'B', 'O', 'O', 0, 'T', 0xFF, 0xFF},
		"programmed zero pair": {0x12, 0x00, 0x00},
	}

	for name, stream := range streams {
		t.Run(name, func(t *testing.T) {
			var output bytes.Buffer
			n, err := c.DecompressRLE8(bytes.NewReader(stream), &output)
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
			assert.EqualValues(t, output.Len(), n, "reported size must match what was written")
		})
	}
}

func TestRLE8RoundTrip__FlashImages(t *testing.T) {
	programmedPrefix := erasedBytes(4096)
	rand.Read(programmedPrefix[:300])

	sparseRecords := erasedBytes(4096)
	for offset := 0; offset < 4096; offset += 512 {
		copy(sparseRecords[offset:], []byte("BOOT\x07\x00\x00\x00"))
	}

	images := map[string][]byte{
		"blank":              {},
		"erased page":        erasedBytes(4096),
		"two erased pages":   erasedBytes(8192),
		"programmed prefix":  programmedPrefix,
		"sparse records":     sparseRecords,
		"all bits cleared":   make([]byte, 1024),
		"odd-length erasure": erasedBytes(4099),
	}

	for name, image := range images {
		t.Run(name, func(t *testing.T) {
			var compressed bytes.Buffer
			_, err := c.CompressRLE8(bytes.NewReader(image), &compressed)
			require.NoError(t, err)

			var restored bytes.Buffer
			n, err := c.DecompressRLE8(&compressed, &restored)
			require.NoError(t, err)
			assert.EqualValues(t, len(image), n)
			assert.True(t, bytes.Equal(image, restored.Bytes()), "image changed across a round trip")
		})
	}
}

func TestRLE8__ErasedPageShrinks(t *testing.T) {
	var compressed bytes.Buffer
	_, err := c.CompressRLE8(bytes.NewReader(erasedBytes(4096)), &compressed)
	require.NoError(t, err)
	assert.Less(t, compressed.Len(), 64)
}
