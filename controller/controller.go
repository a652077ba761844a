// Package controller defines the flash storage controller the block device
// adapter drives. Program and erase are asynchronous: the controller accepts
// the request, returns immediately, and later reports the outcome through the
// event handler registered in Init. The handler may run on any goroutine.
package controller

import (
	"fmt"

	"github.com/dargueta/norflash/errors"
)

// Op identifies which kind of request an [Event] completes.
type Op int

const (
	OpRead Op = iota
	OpWrite
	OpErase
)

func (op Op) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpErase:
		return "erase"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Event reports the completion of one request.
type Event struct {
	Op     Op
	Result errors.Status
	Addr   uint32
	Len    uint32
	// Context is the value passed along with the request, returned untouched.
	Context any
}

// EventHandler receives completion events. It's called once per accepted
// asynchronous request.
type EventHandler func(event Event)

// Controller is a flash storage controller bound to a single address region.
type Controller interface {
	// Init binds the controller to the region [start, end) and registers the
	// completion handler.
	Init(start, end uint32, handler EventHandler) errors.Status
	// Read copies len(buf) bytes at `addr` into `buf`. Depending on the
	// controller, the data may only be valid once IsBusy returns false.
	Read(addr uint32, buf []byte) errors.Status
	// Write starts programming `data` at `addr`. The caller must not modify
	// `data` until the completion event arrives.
	Write(addr uint32, data []byte, ctx any) errors.Status
	// Erase starts erasing `pages` erase units beginning at `addr`.
	Erase(addr uint32, pages uint32, ctx any) errors.Status
	// IsBusy reports whether the controller is still executing a request.
	IsBusy() bool
}
