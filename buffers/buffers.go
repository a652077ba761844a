// Package buffers provides the memory the filesystem engine uses for its read,
// program and lookahead caches. Devices without a heap use a fixed [Arena]
// allocated once up front; everything else can use [Heap].
package buffers

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/norflash/errors"
)

// Provider hands out byte buffers of at least the requested size.
type Provider interface {
	// Allocate returns a zeroed buffer of exactly `size` bytes.
	Allocate(size uint32) ([]byte, error)
	// Release returns a buffer obtained from Allocate. Releasing a buffer that
	// didn't come from this provider is an error.
	Release(buffer []byte) error
}

// Heap allocates every buffer on demand. Release is a no-op.
type Heap struct{}

func (Heap) Allocate(size uint32) ([]byte, error) {
	if size == 0 {
		return nil, errors.NewWithMessage(errors.EINVAL, "can't allocate a zero-length buffer")
	}
	return make([]byte, size), nil
}

func (Heap) Release([]byte) error {
	return nil
}

// Arena is a fixed pool of equally sized slots carved out of one slab that's
// allocated when the arena is created. It never allocates afterwards.
type Arena struct {
	slab     []byte
	slotSize uint32
	used     bitmap.Bitmap
	slots    int
}

// NewArena creates an arena with `slots` slots of `slotSize` bytes each.
func NewArena(slotSize uint32, slots int) *Arena {
	return &Arena{
		slab:     make([]byte, int(slotSize)*slots),
		slotSize: slotSize,
		used:     bitmap.New(slots),
		slots:    slots,
	}
}

// SlotSize gives the largest buffer the arena can hand out.
func (a *Arena) SlotSize() uint32 {
	return a.slotSize
}

// InUse gives the number of slots currently allocated.
func (a *Arena) InUse() int {
	count := 0
	for i := 0; i < a.slots; i++ {
		if a.used.Get(i) {
			count++
		}
	}
	return count
}

// Allocate returns the first free slot, trimmed to `size` bytes. It fails with
// ENOMEM if `size` exceeds the slot size or all slots are taken.
func (a *Arena) Allocate(size uint32) ([]byte, error) {
	if size == 0 {
		return nil, errors.NewWithMessage(errors.EINVAL, "can't allocate a zero-length buffer")
	}
	if size > a.slotSize {
		return nil, errors.NewWithMessage(
			errors.ENOMEM,
			fmt.Sprintf("requested %d bytes but arena slots are %d bytes", size, a.slotSize))
	}

	for i := 0; i < a.slots; i++ {
		if a.used.Get(i) {
			continue
		}
		a.used.Set(i, true)

		start := i * int(a.slotSize)
		buffer := a.slab[start : start+int(size) : start+int(a.slotSize)]
		for j := range buffer {
			buffer[j] = 0
		}
		return buffer, nil
	}

	return nil, errors.NewWithMessage(
		errors.ENOMEM, fmt.Sprintf("all %d arena slots are in use", a.slots))
}

// Release marks the slot backing `buffer` as free again.
func (a *Arena) Release(buffer []byte) error {
	slot, err := a.slotOf(buffer)
	if err != nil {
		return err
	}
	if !a.used.Get(slot) {
		return errors.NewWithMessage(
			errors.EINVAL, fmt.Sprintf("arena slot %d is already free", slot))
	}
	a.used.Set(slot, false)
	return nil
}

// slotOf finds which slot `buffer` starts at. Buffers are identified by the
// address of their first byte, so any reslicing that keeps the start works.
func (a *Arena) slotOf(buffer []byte) (int, error) {
	if cap(buffer) == 0 || a.slotSize == 0 {
		return 0, errors.NewWithMessage(errors.EINVAL, "buffer is empty")
	}
	first := &buffer[:1][0]
	for i := 0; i < a.slots; i++ {
		if first == &a.slab[i*int(a.slotSize)] {
			return i, nil
		}
	}
	return 0, errors.NewWithMessage(errors.EINVAL, "buffer was not allocated from this arena")
}
