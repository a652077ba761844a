package geometry

import (
	"fmt"

	"github.com/dargueta/norflash/errors"
)

const (
	DefaultStartAddress = 0x3e000
	DefaultEndAddress   = 0x40000
)

// Region is the half-open address range [Start, End) of the flash set aside
// for the filesystem.
type Region struct {
	Start uint32
	End   uint32
}

func DefaultRegion() Region {
	return Region{Start: DefaultStartAddress, End: DefaultEndAddress}
}

// Size gives the number of bytes in the region.
func (r Region) Size() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return uint64(r.End - r.Start)
}

// BlockAddress gives the absolute address of byte `offset` of erase unit
// `block`. It doesn't check bounds.
func (r Region) BlockAddress(cfg *Config, block, offset uint32) uint32 {
	return r.Start + block*cfg.BlockSize + offset
}

// Validate checks that the region is nonempty and large enough to hold every
// erase unit described by `cfg`.
func (r Region) Validate(cfg *Config) error {
	if r.End <= r.Start {
		return errors.NewWithMessage(
			errors.EINVAL,
			fmt.Sprintf("region end 0x%x is not past start 0x%x", r.End, r.Start))
	}
	if r.Size() < cfg.TotalSize() {
		return errors.NewWithMessage(
			errors.EINVAL,
			fmt.Sprintf(
				"region [0x%x, 0x%x) holds %d bytes but %d blocks of %d bytes need %d",
				r.Start,
				r.End,
				r.Size(),
				cfg.BlockCount,
				cfg.BlockSize,
				cfg.TotalSize()))
	}
	return nil
}

func (r Region) String() string {
	return fmt.Sprintf("[0x%x, 0x%x)", r.Start, r.End)
}
