// Package sim is an in-memory NOR flash controller. It behaves like the real
// thing where it matters to the adapter: program and erase finish on another
// goroutine and report through the event handler, programming can only clear
// bits, erasing sets a whole page to 0xFF, and a second request while one is
// in flight is refused.
package sim

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/boljen/go-bitmap"
	log "github.com/fclairamb/go-log"
	lognoop "github.com/fclairamb/go-log/noop"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/norflash/controller"
	"github.com/dargueta/norflash/errors"
)

// ErasedByte is the value of every byte of a freshly erased page.
const ErasedByte = 0xFF

// WordSize is the program granularity: writes must be aligned to it and be a
// multiple of it in length.
const WordSize = 4

// Options configures a simulated controller.
type Options struct {
	// PageSize is the erase unit size, in bytes. Defaults to 4096.
	PageSize uint32
	// Backing holds the flash contents, with offset 0 at the region start. If
	// nil, a fully erased in-memory store is created when Init is called.
	Backing io.ReadWriteSeeker
	// Latency is how long each program or erase takes before its completion
	// event fires.
	Latency time.Duration
	// BusyPolls is the number of extra times IsBusy reports true after each
	// request (reads included), regardless of whether the request already
	// finished.
	BusyPolls int
	Logger    log.Logger
}

type Controller struct {
	pageSize  uint32
	latency   time.Duration
	busyPolls int
	logger    log.Logger

	lock        sync.Mutex
	pending     sync.WaitGroup
	backing     io.ReadWriteSeeker
	handler     controller.EventHandler
	start       uint32
	end         uint32
	initialized bool
	inFlight    bool
	busyLeft    int

	failInit        errors.Status
	failNextRead    errors.Status
	failNextWrite   errors.Status
	failNextErase   errors.Status
	rejectNextWrite errors.Status
	rejectNextErase errors.Status
	dropNextEvent   bool

	eraseCounts []uint32
	dirtyPages  bitmap.Bitmap
	events      int
	busyPolled  int
}

var _ controller.Controller = (*Controller)(nil)

func New(opts Options) *Controller {
	if opts.PageSize == 0 {
		opts.PageSize = 4096
	}
	if opts.Logger == nil {
		opts.Logger = lognoop.NewNoOpLogger()
	}
	return &Controller{
		pageSize:  opts.PageSize,
		latency:   opts.Latency,
		busyPolls: opts.BusyPolls,
		logger:    opts.Logger,
		backing:   opts.Backing,
	}
}

////////////////////////////////////////////////////////////////////////////////
// Controller interface

func (c *Controller) Init(start, end uint32, handler controller.EventHandler) errors.Status {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.failInit != errors.StatusSuccess {
		status := c.failInit
		c.failInit = errors.StatusSuccess
		return status
	}
	if handler == nil {
		return errors.StatusNull
	}
	if end <= start || start%c.pageSize != 0 {
		return errors.StatusInvalidAddr
	}

	pages := int((end - start) / c.pageSize)
	if c.backing == nil {
		blank := bytes.Repeat([]byte{ErasedByte}, int(end-start))
		c.backing = bytesextra.NewReadWriteSeeker(blank)
	}

	c.start = start
	c.end = end
	c.handler = handler
	c.eraseCounts = make([]uint32, pages)
	c.dirtyPages = bitmap.New(pages)
	c.initialized = true

	c.logger.Debug("Flash controller bound", "start", start, "end", end, "pages", pages)
	return errors.StatusSuccess
}

func (c *Controller) Read(addr uint32, buf []byte) errors.Status {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.initialized {
		return errors.StatusInvalidState
	}
	if c.failNextRead != errors.StatusSuccess {
		status := c.failNextRead
		c.failNextRead = errors.StatusSuccess
		return status
	}
	if len(buf) == 0 {
		return errors.StatusInvalidLength
	}
	if !c.inRegion(addr, uint32(len(buf))) {
		return errors.StatusInvalidAddr
	}

	if err := c.readAt(addr, buf); err != nil {
		c.logger.Error("Backing store read failed", "addr", addr, "err", err)
		return errors.StatusInternal
	}
	c.busyLeft = c.busyPolls
	return errors.StatusSuccess
}

func (c *Controller) Write(addr uint32, data []byte, ctx any) errors.Status {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.initialized {
		return errors.StatusInvalidState
	}
	if c.rejectNextWrite != errors.StatusSuccess {
		status := c.rejectNextWrite
		c.rejectNextWrite = errors.StatusSuccess
		return status
	}
	if c.inFlight {
		return errors.StatusBusy
	}
	if addr%WordSize != 0 {
		return errors.StatusInvalidAddr
	}
	if len(data) == 0 || len(data)%WordSize != 0 {
		return errors.StatusInvalidLength
	}
	if !c.inRegion(addr, uint32(len(data))) {
		return errors.StatusInvalidAddr
	}

	payload := make([]byte, len(data))
	copy(payload, data)

	result := c.failNextWrite
	c.failNextWrite = errors.StatusSuccess

	event := controller.Event{
		Op:      controller.OpWrite,
		Result:  result,
		Addr:    addr,
		Len:     uint32(len(data)),
		Context: ctx,
	}
	c.startRequest(event, func() error { return c.program(addr, payload) })
	return errors.StatusSuccess
}

func (c *Controller) Erase(addr uint32, pages uint32, ctx any) errors.Status {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.initialized {
		return errors.StatusInvalidState
	}
	if c.rejectNextErase != errors.StatusSuccess {
		status := c.rejectNextErase
		c.rejectNextErase = errors.StatusSuccess
		return status
	}
	if c.inFlight {
		return errors.StatusBusy
	}
	if pages == 0 {
		return errors.StatusInvalidLength
	}
	if (addr-c.start)%c.pageSize != 0 || !c.inRegion(addr, pages*c.pageSize) {
		return errors.StatusInvalidAddr
	}

	result := c.failNextErase
	c.failNextErase = errors.StatusSuccess

	event := controller.Event{
		Op:      controller.OpErase,
		Result:  result,
		Addr:    addr,
		Len:     pages,
		Context: ctx,
	}
	c.startRequest(event, func() error { return c.erase(addr, pages) })
	return errors.StatusSuccess
}

func (c *Controller) IsBusy() bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.busyPolled++
	if c.busyLeft > 0 {
		c.busyLeft--
		return true
	}
	return c.inFlight
}

////////////////////////////////////////////////////////////////////////////////
// Request execution

// startRequest marks the controller busy and finishes the request on a new
// goroutine. The caller must hold the lock.
func (c *Controller) startRequest(event controller.Event, apply func() error) {
	c.inFlight = true
	c.busyLeft = c.busyPolls
	drop := c.dropNextEvent
	c.dropNextEvent = false

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if c.latency > 0 {
			time.Sleep(c.latency)
		}

		c.lock.Lock()
		if event.Result == errors.StatusSuccess {
			if err := apply(); err != nil {
				c.logger.Error("Backing store update failed", "op", event.Op, "addr", event.Addr, "err", err)
				event.Result = errors.StatusInternal
			}
		}
		c.inFlight = false
		c.events++
		handler := c.handler
		c.lock.Unlock()

		if drop {
			c.logger.Warn("Dropping completion event", "op", event.Op, "addr", event.Addr)
			return
		}
		handler(event)
	}()
}

// program ANDs `data` into the backing store: NOR cells can only go from 1 to
// 0 without an erase. The caller must hold the lock.
func (c *Controller) program(addr uint32, data []byte) error {
	current := make([]byte, len(data))
	if err := c.readAt(addr, current); err != nil {
		return err
	}
	for i := range current {
		current[i] &= data[i]
	}
	if err := c.writeAt(addr, current); err != nil {
		return err
	}

	firstPage := int((addr - c.start) / c.pageSize)
	lastPage := int((addr - c.start + uint32(len(data)) - 1) / c.pageSize)
	for page := firstPage; page <= lastPage; page++ {
		c.dirtyPages.Set(page, true)
	}
	return nil
}

// erase resets `pages` whole pages to [ErasedByte]. The caller must hold the
// lock.
func (c *Controller) erase(addr uint32, pages uint32) error {
	blank := bytes.Repeat([]byte{ErasedByte}, int(c.pageSize))
	firstPage := int((addr - c.start) / c.pageSize)

	for i := 0; i < int(pages); i++ {
		page := firstPage + i
		if err := c.writeAt(c.start+uint32(page)*c.pageSize, blank); err != nil {
			return err
		}
		c.eraseCounts[page]++
		c.dirtyPages.Set(page, false)
	}
	return nil
}

func (c *Controller) inRegion(addr, length uint32) bool {
	return addr >= c.start && uint64(addr)+uint64(length) <= uint64(c.end)
}

func (c *Controller) readAt(addr uint32, buf []byte) error {
	if _, err := c.backing.Seek(int64(addr-c.start), io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(c.backing, buf)
	return err
}

func (c *Controller) writeAt(addr uint32, data []byte) error {
	if _, err := c.backing.Seek(int64(addr-c.start), io.SeekStart); err != nil {
		return err
	}
	n, err := c.backing.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short write at 0x%x: %d of %d bytes", addr, n, len(data))
	}
	return nil
}
