package adapter

import (
	"github.com/dargueta/norflash/buffers"
	"github.com/dargueta/norflash/errors"
	"github.com/dargueta/norflash/geometry"
)

// Config is everything an engine that speaks in integer result codes needs to
// mount the device: the geometry, the cache buffers, and the four block device
// entry points. The entry points return 0 on success and a negative
// [errors.Code] on failure.
type Config struct {
	geometry.Config
	buffers.Set

	ReadFunc  func(block, off uint32, buf []byte) int
	ProgFunc  func(block, off uint32, buf []byte) int
	EraseFunc func(block uint32) int
	SyncFunc  func() int
}

// Config returns the device's mount configuration with its entry points bound
// to this device.
func (d *Device) Config() Config {
	return Config{
		Config: d.geometry,
		Set:    d.buffers,
		ReadFunc: func(block, off uint32, buf []byte) int {
			return errors.ResultCode(d.Read(block, off, buf))
		},
		ProgFunc: func(block, off uint32, buf []byte) int {
			return errors.ResultCode(d.Program(block, off, buf))
		},
		EraseFunc: func(block uint32) int {
			return errors.ResultCode(d.Erase(block))
		},
		SyncFunc: func() int {
			return errors.ResultCode(d.Sync())
		},
	}
}
