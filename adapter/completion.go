package adapter

import (
	"sync/atomic"

	"github.com/dargueta/norflash/errors"
)

// The completion state is one 64-bit word so that the event handler and the
// waiting caller never observe a half-updated slot:
//
//	bits 33-63  sequence number of the armed request (0 = nothing armed)
//	bit  32     set once the request has been resolved
//	bits 0-31   controller status reported by the event
const (
	resolvedBit = uint64(1) << 32
	seqShift    = 33
	maxSeq      = uint32(1)<<31 - 1
)

// completion is a single-slot, one-shot handoff between the controller's event
// handler and the goroutine blocked in a device operation.
type completion struct {
	state atomic.Uint64
	// lastSeq is only touched by the calling goroutine, under the device lock.
	lastSeq uint32
}

// arm resets the slot to pending for a new request and returns the sequence
// number that the request's completion event must carry.
func (c *completion) arm() uint32 {
	c.lastSeq++
	if c.lastSeq > maxSeq {
		c.lastSeq = 1
	}
	c.state.Store(uint64(c.lastSeq) << seqShift)
	return c.lastSeq
}

// resolve records the outcome of request `seq`. It only succeeds once, and
// only while that exact request is armed and unresolved.
func (c *completion) resolve(seq uint32, status errors.Status) bool {
	if seq == 0 || seq > maxSeq {
		return false
	}
	armed := uint64(seq) << seqShift
	return c.state.CompareAndSwap(armed, armed|resolvedBit|uint64(status))
}

// pending reports whether no outcome is waiting to be consumed.
func (c *completion) pending() bool {
	return c.state.Load()&resolvedBit == 0
}

// consume takes the outcome, if any, and disarms the slot. Events for the
// consumed request that arrive later are rejected by resolve.
func (c *completion) consume() (errors.Status, bool) {
	old := c.state.Swap(0)
	if old&resolvedBit == 0 {
		return errors.StatusSuccess, false
	}
	return errors.Status(uint32(old)), true
}
