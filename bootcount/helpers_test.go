package bootcount_test

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/dargueta/norflash"
	"github.com/stretchr/testify/require"
)

// writeRecordAt programs a valid 16-byte counter record directly.
func writeRecordAt(t *testing.T, device norflash.BlockDevice, unit, offset, value uint32) {
	record := make([]byte, 16)
	for i := range record {
		record[i] = 0xFF
	}
	binary.LittleEndian.PutUint32(record[0:4], 0x544f4f42)
	binary.LittleEndian.PutUint32(record[4:8], value)
	binary.LittleEndian.PutUint32(record[8:12], crc32.ChecksumIEEE(record[:8]))
	require.NoError(t, device.Program(unit, offset, record))
}
