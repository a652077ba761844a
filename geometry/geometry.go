// Package geometry describes the shape of the flash medium as the filesystem
// engine sees it: read and program granularity, erase unit size and count,
// cache sizes and optional limits.
package geometry

import (
	"fmt"

	"github.com/dargueta/norflash/errors"
)

const (
	DefaultReadSize      = 16
	DefaultProgSize      = 16
	DefaultBlockSize     = 4096
	DefaultBlockCount    = 2
	DefaultCacheSize     = 16
	DefaultLookaheadSize = 16
	DefaultBlockCycles   = 500
)

// Limit is an optional limit. The zero value is unset, which is not the same
// as a limit of zero: the filesystem substitutes its own default for an unset
// limit.
type Limit struct {
	value uint32
	set   bool
}

// Some returns a Limit set to `value`.
func Some(value uint32) Limit {
	return Limit{value: value, set: true}
}

func (l Limit) IsSet() bool {
	return l.set
}

// Get returns the value of the limit and whether it's set.
func (l Limit) Get() (uint32, bool) {
	return l.value, l.set
}

func (l Limit) String() string {
	if !l.set {
		return "unset"
	}
	return fmt.Sprintf("%d", l.value)
}

// Config is the device geometry handed to the filesystem engine at mount and
// format time.
type Config struct {
	// ReadSize is the minimum size of a read, in bytes. All reads are a
	// multiple of this.
	ReadSize uint32
	// ProgSize is the minimum size of a program operation, in bytes.
	ProgSize uint32
	// BlockSize is the size of an erase unit, in bytes.
	BlockSize uint32
	// BlockCount is the number of erase units available to the filesystem.
	BlockCount uint32
	// CacheSize is the size of the read and program caches, in bytes.
	CacheSize uint32
	// LookaheadSize is the size of the block allocator's lookahead buffer,
	// in bytes.
	LookaheadSize uint32
	// BlockCycles is the number of erase cycles before the engine moves
	// metadata to another block. -1 disables block-level wear leveling.
	BlockCycles int32

	NameMax     Limit
	FileMax     Limit
	AttrMax     Limit
	MetadataMax Limit
}

// Default returns the geometry used when nothing is configured. None of the
// optional limits are set.
func Default() Config {
	return Config{
		ReadSize:      DefaultReadSize,
		ProgSize:      DefaultProgSize,
		BlockSize:     DefaultBlockSize,
		BlockCount:    DefaultBlockCount,
		CacheSize:     DefaultCacheSize,
		LookaheadSize: DefaultLookaheadSize,
		BlockCycles:   DefaultBlockCycles,
	}
}

// TotalSize gives the number of bytes covered by all erase units.
func (c *Config) TotalSize() uint64 {
	return uint64(c.BlockSize) * uint64(c.BlockCount)
}

// Validate checks the alignment rules the filesystem engine relies on. All
// violations are reported together in a single error with code EINVAL.
func (c *Config) Validate() error {
	var problems []error

	nonzero := []struct {
		name  string
		value uint32
	}{
		{"read size", c.ReadSize},
		{"program size", c.ProgSize},
		{"block size", c.BlockSize},
		{"block count", c.BlockCount},
		{"cache size", c.CacheSize},
		{"lookahead size", c.LookaheadSize},
	}
	for _, field := range nonzero {
		if field.value == 0 {
			problems = append(problems, fmt.Errorf("%s must be nonzero", field.name))
		}
	}
	if len(problems) > 0 {
		// Every remaining check divides by one of these.
		return errors.NewFromErrors(errors.EINVAL, problems...)
	}

	if c.BlockSize%c.ReadSize != 0 {
		problems = append(problems, fmt.Errorf(
			"block size %d is not a multiple of read size %d", c.BlockSize, c.ReadSize))
	}
	if c.BlockSize%c.ProgSize != 0 {
		problems = append(problems, fmt.Errorf(
			"block size %d is not a multiple of program size %d", c.BlockSize, c.ProgSize))
	}
	if c.CacheSize%c.ReadSize != 0 || c.CacheSize%c.ProgSize != 0 {
		problems = append(problems, fmt.Errorf(
			"cache size %d must be a multiple of read size %d and program size %d",
			c.CacheSize,
			c.ReadSize,
			c.ProgSize))
	}
	if c.BlockSize%c.CacheSize != 0 {
		problems = append(problems, fmt.Errorf(
			"cache size %d does not evenly divide block size %d", c.CacheSize, c.BlockSize))
	}
	if c.LookaheadSize%8 != 0 {
		problems = append(problems, fmt.Errorf(
			"lookahead size %d is not a multiple of 8", c.LookaheadSize))
	}
	if c.BlockCycles == 0 {
		problems = append(problems, fmt.Errorf("block cycles must be positive or -1"))
	}

	return errors.NewFromErrors(errors.EINVAL, problems...)
}
