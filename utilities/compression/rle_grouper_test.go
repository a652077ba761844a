package compression_test

import (
	"bytes"
	"io"
	"testing"

	c "github.com/dargueta/norflash/utilities/compression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLengthGrouper__FirstRun(t *testing.T) {
	tests := []struct {
		Name     string
		Data     []byte
		Expected c.ByteRun
	}{
		{"two initial", []byte{0, 0, 1, 0, 0, 0, 0}, c.ByteRun{Byte: 0, RunLength: 2}},
		{"one byte", []byte{6, 1, 5, 20, 31}, c.ByteRun{Byte: 6, RunLength: 1}},
		{"entire run", []byte{9, 9, 9, 9, 9, 9}, c.ByteRun{Byte: 9, RunLength: 6}},
		{"erased page", bytes.Repeat([]byte{0xFF}, 4096), c.ByteRun{Byte: 0xFF, RunLength: 4096}},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			grouper := c.NewRunLengthGrouper(bytes.NewReader(test.Data))
			result, err := grouper.GetNextRun()
			require.NoError(t, err)
			assert.Equal(t, test.Expected, result)
		})
	}
}

func TestRunLengthGrouper__Empty(t *testing.T) {
	grouper := c.NewRunLengthGrouper(bytes.NewReader(nil))
	result, err := grouper.GetNextRun()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, c.ByteRun{}, result)
}

func TestRunLengthGrouper__Sequence(t *testing.T) {
	data := []byte{1, 9, 4, 4, 4, 4, 4, 6, 6, 0, 1, 0, 0, 0}
	expected := []c.ByteRun{
		{Byte: 1, RunLength: 1},
		{Byte: 9, RunLength: 1},
		{Byte: 4, RunLength: 5},
		{Byte: 6, RunLength: 2},
		{Byte: 0, RunLength: 1},
		{Byte: 1, RunLength: 1},
		{Byte: 0, RunLength: 3},
	}

	grouper := c.NewRunLengthGrouper(bytes.NewReader(data))
	for i, expectedRun := range expected {
		result, err := grouper.GetNextRun()
		require.NoErrorf(t, err, "run %d", i)
		assert.Equalf(t, expectedRun, result, "run %d is wrong", i)
	}

	_, err := grouper.GetNextRun()
	assert.ErrorIs(t, err, io.EOF)
}
