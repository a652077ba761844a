// Package bootcount keeps a persistent counter on a block device, the way a
// device would count its boots. It uses two erase units in ping-pong, each
// holding an append-only log of counter records.
//
// A record is one program unit long (at least 12 bytes):
//
//	magic "BOOT" | counter (u32 LE) | CRC-32 of the first 8 bytes | 0xFF padding
//
// The current value is the last record of whichever unit holds the highest
// counter. When the active unit fills up, the other unit is erased and takes
// the next record, and only then is the full unit erased, so at least one
// valid record survives a power loss at any point.
//
// A damaged record followed only by erased slots is an append that was cut
// short. It is skipped, and since a NOR slot can't be programmed twice, the
// next increment moves on to the other unit. Damage anywhere else in a unit
// fails the mount with ECORRUPT.
package bootcount

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/noxer/bytewriter"

	"github.com/dargueta/norflash"
	"github.com/dargueta/norflash/errors"
	"github.com/dargueta/norflash/geometry"
)

const recordMagic = uint32(0x544f4f42) // "BOOT" little-endian

const recordPayloadSize = 12

const erasedByte = 0xFF

// Counter is a boot counter stored on a block device.
type Counter struct {
	device     norflash.BlockDevice
	blockSize  uint32
	recordSize uint32
	record     []byte

	mounted    bool
	active     uint32
	nextOffset uint32
	value      uint32
	// sealed is set when the active unit ends in a torn record, so nothing
	// more may be appended to it.
	sealed bool
}

// New creates a counter using erase units 0 and 1 of `device`. The counter
// must be mounted or formatted before use.
func New(device norflash.BlockDevice, cfg geometry.Config) (*Counter, error) {
	if cfg.BlockCount < 2 {
		return nil, errors.NewWithMessage(
			errors.EINVAL, fmt.Sprintf("need 2 erase units, device has %d", cfg.BlockCount))
	}

	recordSize := cfg.ProgSize
	for recordSize < recordPayloadSize {
		recordSize += cfg.ProgSize
	}
	if recordSize > cfg.BlockSize || cfg.BlockSize%recordSize != 0 {
		return nil, errors.NewWithMessage(
			errors.EINVAL,
			fmt.Sprintf("%d-byte records don't fit %d-byte blocks", recordSize, cfg.BlockSize))
	}

	return &Counter{
		device:     device,
		blockSize:  cfg.BlockSize,
		recordSize: recordSize,
		record:     make([]byte, recordSize),
	}, nil
}

// Value returns the current counter value.
func (c *Counter) Value() uint32 {
	return c.value
}

// Mount loads the counter from the device. It fails with ECORRUPT if neither
// unit holds a valid record or if a record other than a torn last one is
// damaged.
func (c *Counter) Mount() error {
	c.mounted = false

	found := false
	for unit := uint32(0); unit < 2; unit++ {
		result, err := c.scan(unit)
		if err != nil {
			return err
		}
		if result.found && (!found || result.last > c.value) {
			found = true
			c.active = unit
			c.nextOffset = result.nextOffset
			c.value = result.last
			c.sealed = result.torn
		}
	}

	if !found {
		return errors.NewWithMessage(errors.ECORRUPT, "no counter record found")
	}
	c.mounted = true
	return nil
}

// Format erases both units and starts the counter over at zero.
func (c *Counter) Format() error {
	c.mounted = false
	for unit := uint32(0); unit < 2; unit++ {
		if err := c.device.Erase(unit); err != nil {
			return err
		}
	}
	if err := c.append(0, 0, 0); err != nil {
		return err
	}

	c.active = 0
	c.nextOffset = c.recordSize
	c.value = 0
	c.sealed = false
	c.mounted = true
	return nil
}

// MountOrFormat mounts the counter, reformatting the device if that fails.
// This should only happen on first boot. It reports whether it formatted.
func (c *Counter) MountOrFormat() (bool, error) {
	if err := c.Mount(); err == nil {
		return false, nil
	}
	if err := c.Format(); err != nil {
		return true, err
	}
	return true, c.Mount()
}

// Increment adds one to the counter, persists it, and returns the new value.
func (c *Counter) Increment() (uint32, error) {
	if !c.mounted {
		return 0, errors.NewWithMessage(errors.EBADF, "counter is not mounted")
	}

	next := c.value + 1
	if !c.sealed && c.nextOffset+c.recordSize <= c.blockSize {
		if err := c.append(c.active, c.nextOffset, next); err != nil {
			return c.value, err
		}
		c.nextOffset += c.recordSize
	} else {
		other := 1 - c.active
		if err := c.device.Erase(other); err != nil {
			return c.value, err
		}
		if err := c.append(other, 0, next); err != nil {
			return c.value, err
		}
		if err := c.device.Erase(c.active); err != nil {
			return c.value, err
		}
		c.active = other
		c.nextOffset = c.recordSize
		c.sealed = false
	}

	c.value = next
	return next, c.device.Sync()
}

// scanResult describes one unit: the value of its last valid record, the
// offset just past the last slot in use, whether any valid record was found,
// and whether the unit ends in a record that was only partly written.
type scanResult struct {
	last       uint32
	nextOffset uint32
	found      bool
	torn       bool
}

// scan walks the records of one unit, stopping at the first erased slot.
func (c *Counter) scan(unit uint32) (scanResult, error) {
	var result scanResult

	offset := uint32(0)
	for ; offset+c.recordSize <= c.blockSize; offset += c.recordSize {
		if err := c.device.Read(unit, offset, c.record); err != nil {
			return scanResult{}, err
		}
		if isErased(c.record) {
			break
		}

		value, err := decodeRecord(c.record)
		if err != nil {
			erasedAfter, readErr := c.erasedFrom(unit, offset+c.recordSize)
			if readErr != nil {
				return scanResult{}, readErr
			}
			if !erasedAfter {
				return scanResult{}, fmt.Errorf("unit %d offset %d: %w", unit, offset, err)
			}
			result.torn = true
			result.nextOffset = offset + c.recordSize
			return result, nil
		}
		result.last = value
		result.found = true
	}
	result.nextOffset = offset
	return result, nil
}

// erasedFrom reports whether every slot of `unit` from `offset` on is erased.
func (c *Counter) erasedFrom(unit, offset uint32) (bool, error) {
	for ; offset+c.recordSize <= c.blockSize; offset += c.recordSize {
		if err := c.device.Read(unit, offset, c.record); err != nil {
			return false, err
		}
		if !isErased(c.record) {
			return false, nil
		}
	}
	return true, nil
}

func (c *Counter) append(unit, offset, value uint32) error {
	if err := encodeRecord(c.record, value); err != nil {
		return errors.NewFromError(errors.EIO, err)
	}
	return c.device.Program(unit, offset, c.record)
}

func encodeRecord(record []byte, value uint32) error {
	for i := range record {
		record[i] = erasedByte
	}

	writer := bytewriter.New(record)
	if err := binary.Write(writer, binary.LittleEndian, recordMagic); err != nil {
		return err
	}
	if err := binary.Write(writer, binary.LittleEndian, value); err != nil {
		return err
	}
	return binary.Write(writer, binary.LittleEndian, crc32.ChecksumIEEE(record[:8]))
}

func decodeRecord(record []byte) (uint32, error) {
	magic := binary.LittleEndian.Uint32(record[0:4])
	value := binary.LittleEndian.Uint32(record[4:8])
	checksum := binary.LittleEndian.Uint32(record[8:12])

	if magic != recordMagic {
		return 0, errors.NewWithMessage(
			errors.ECORRUPT, fmt.Sprintf("bad record magic 0x%08x", magic))
	}
	if crc32.ChecksumIEEE(record[:8]) != checksum {
		return 0, errors.NewWithMessage(errors.ECORRUPT, "record checksum mismatch")
	}
	return value, nil
}

func isErased(record []byte) bool {
	return bytes.Count(record, []byte{erasedByte}) == len(record)
}
