package buffers

import (
	"github.com/dargueta/norflash/errors"
	"github.com/dargueta/norflash/geometry"
)

// Set holds the three buffers a filesystem engine needs for one mounted
// volume. Read and Prog are CacheSize bytes; Lookahead is LookaheadSize bytes.
type Set struct {
	Read      []byte
	Prog      []byte
	Lookahead []byte
}

// ArenaFor creates an arena with exactly enough room for one [Set] for `cfg`.
func ArenaFor(cfg *geometry.Config) *Arena {
	slotSize := cfg.CacheSize
	if cfg.LookaheadSize > slotSize {
		slotSize = cfg.LookaheadSize
	}
	return NewArena(slotSize, 3)
}

// AllocateSet allocates all three buffers from `provider`. If any allocation
// fails, the buffers already obtained are given back.
func AllocateSet(provider Provider, cfg *geometry.Config) (Set, error) {
	var set Set
	var err error

	set.Read, err = provider.Allocate(cfg.CacheSize)
	if err != nil {
		return Set{}, err
	}

	set.Prog, err = provider.Allocate(cfg.CacheSize)
	if err != nil {
		provider.Release(set.Read)
		return Set{}, err
	}

	set.Lookahead, err = provider.Allocate(cfg.LookaheadSize)
	if err != nil {
		provider.Release(set.Read)
		provider.Release(set.Prog)
		return Set{}, err
	}
	return set, nil
}

// Release returns every buffer in the set to `provider`.
func (s *Set) Release(provider Provider) error {
	var errs []error
	for _, buffer := range [][]byte{s.Read, s.Prog, s.Lookahead} {
		if buffer != nil {
			errs = append(errs, provider.Release(buffer))
		}
	}
	*s = Set{}
	if err := errors.NewFromErrors(errors.EINVAL, errs...); err != nil {
		return err
	}
	return nil
}
