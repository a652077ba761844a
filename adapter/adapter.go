// Package adapter turns an asynchronous flash storage controller into the
// synchronous [norflash.BlockDevice] a filesystem engine expects.
//
// Requests are strictly serialized: a Device never issues a new request until
// the previous one has reported completion, so the engine can rely on program
// and erase ordering. While waiting, the device spins on the controller, feeding
// the watchdog on every iteration.
package adapter

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	log "github.com/fclairamb/go-log"
	lognoop "github.com/fclairamb/go-log/noop"

	"github.com/dargueta/norflash"
	"github.com/dargueta/norflash/buffers"
	"github.com/dargueta/norflash/controller"
	"github.com/dargueta/norflash/errors"
	"github.com/dargueta/norflash/geometry"
)

// Device is a block device backed by a flash storage controller.
type Device struct {
	lock      sync.Mutex
	ctrl      controller.Controller
	geometry  geometry.Config
	region    geometry.Region
	feed      norflash.WatchdogFeed
	logger    log.Logger
	provider  buffers.Provider
	buffers   buffers.Set
	waitLimit time.Duration
	done      completion
}

var _ norflash.BlockDevice = (*Device)(nil)

// Initialize binds `ctrl` to the configured region and prepares a Device.
//
// If the controller refuses to bind, the returned error carries the
// controller's status unchanged; see [errors.StatusOf].
func Initialize(ctrl controller.Controller, opts ...Option) (*Device, error) {
	s := settings{
		geometry: geometry.Default(),
		region:   geometry.DefaultRegion(),
		provider: buffers.Heap{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = lognoop.NewNoOpLogger()
	}

	if err := s.geometry.Validate(); err != nil {
		return nil, err
	}
	if err := s.region.Validate(&s.geometry); err != nil {
		return nil, err
	}

	device := &Device{
		ctrl:      ctrl,
		geometry:  s.geometry,
		region:    s.region,
		feed:      s.feed,
		logger:    s.logger.With("region", s.region.String()),
		provider:  s.provider,
		waitLimit: s.waitLimit,
	}

	// Buffers first: once bound, the controller can't be unbound again.
	set, err := buffers.AllocateSet(s.provider, &device.geometry)
	if err != nil {
		return nil, err
	}
	device.buffers = set

	status := ctrl.Init(s.region.Start, s.region.End, device.handleEvent)
	if status != errors.StatusSuccess {
		device.logger.Error("Binding flash controller failed", "status", status.String())
		if releaseErr := device.buffers.Release(s.provider); releaseErr != nil {
			device.logger.Warn("Releasing cache buffers failed", "err", releaseErr)
		}
		return nil, errors.NewInitError(status)
	}

	device.logger.Info(
		"Flash device ready",
		"blockSize", s.geometry.BlockSize,
		"blockCount", s.geometry.BlockCount,
		"watchdog", s.feed != nil,
	)
	return device, nil
}

// Geometry returns a copy of the geometry the device was initialized with.
func (d *Device) Geometry() geometry.Config {
	return d.geometry
}

// Region returns the flash address range the controller is bound to.
func (d *Device) Region() geometry.Region {
	return d.region
}

// Buffers returns the cache buffers allocated for the filesystem engine.
func (d *Device) Buffers() buffers.Set {
	return d.buffers
}

// Pending reports whether the completion slot is empty. Between calls this is
// always true.
func (d *Device) Pending() bool {
	return d.done.pending()
}

// Close gives the cache buffers back to their provider. The device must not be
// used afterwards.
func (d *Device) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.buffers.Release(d.provider)
}

////////////////////////////////////////////////////////////////////////////////
// Block device operations

// Read fills `buf` from offset `off` of erase unit `block`. Even when the
// controller reads synchronously, Read waits until it reports not busy.
func (d *Device) Read(block, off uint32, buf []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	addr, err := d.address(block, off, len(buf))
	if err != nil {
		return err
	}

	status := d.ctrl.Read(addr, buf)
	if status != errors.StatusSuccess {
		return d.failed(controller.OpRead, addr, status)
	}
	if err := d.waitIdle(d.deadline()); err != nil {
		return d.timedOut(controller.OpRead, addr, err)
	}
	return nil
}

// Program writes `buf` at offset `off` of erase unit `block` and waits for the
// controller to confirm it.
func (d *Device) Program(block, off uint32, buf []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	addr, err := d.address(block, off, len(buf))
	if err != nil {
		return err
	}

	seq := d.done.arm()
	return d.complete(controller.OpWrite, addr, d.ctrl.Write(addr, buf, seq))
}

// Erase erases exactly one erase unit and waits for the controller to confirm
// it.
func (d *Device) Erase(block uint32) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	addr, err := d.address(block, 0, 0)
	if err != nil {
		return err
	}

	seq := d.done.arm()
	return d.complete(controller.OpErase, addr, d.ctrl.Erase(addr, 1, seq))
}

// Sync does nothing. Program and Erase only return once the controller has
// finished, so nothing is ever left to flush.
func (d *Device) Sync() error {
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// Internals

// address checks the bounds of an access and converts it to an absolute flash
// address.
func (d *Device) address(block, off uint32, size int) (uint32, error) {
	if block >= d.geometry.BlockCount {
		return 0, errors.NewWithMessage(
			errors.EINVAL,
			fmt.Sprintf("invalid block %d: not in range [0, %d)", block, d.geometry.BlockCount))
	}
	if uint64(off)+uint64(size) > uint64(d.geometry.BlockSize) {
		return 0, errors.NewWithMessage(
			errors.EINVAL,
			fmt.Sprintf(
				"%d bytes at offset %d run past the end of a %d-byte block",
				size,
				off,
				d.geometry.BlockSize))
	}
	return d.region.BlockAddress(&d.geometry, block, off), nil
}

// complete finishes an asynchronous request that the controller answered with
// `status`. Whatever happens, the completion slot is empty when it returns.
func (d *Device) complete(op controller.Op, addr uint32, status errors.Status) error {
	if status != errors.StatusSuccess {
		d.done.consume()
		return d.failed(op, addr, status)
	}

	deadline := d.deadline()
	err := d.waitIdle(deadline)
	if err == nil {
		err = d.waitResolved(deadline)
	}

	result, _ := d.done.consume()
	if err != nil {
		return d.timedOut(op, addr, err)
	}
	if result != errors.StatusSuccess {
		return d.failed(op, addr, result)
	}
	return nil
}

func (d *Device) deadline() time.Time {
	if d.waitLimit <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d.waitLimit)
}

// waitIdle spins until the controller stops reporting busy.
func (d *Device) waitIdle(deadline time.Time) error {
	for d.ctrl.IsBusy() {
		if err := d.spin(deadline); err != nil {
			return err
		}
	}
	return nil
}

// waitResolved spins until the event handler has filled the completion slot.
func (d *Device) waitResolved(deadline time.Time) error {
	for d.done.pending() {
		if err := d.spin(deadline); err != nil {
			return err
		}
	}
	return nil
}

// spin is one iteration of a wait loop.
func (d *Device) spin(deadline time.Time) error {
	if d.feed != nil {
		d.feed()
	}
	if !deadline.IsZero() && time.Now().After(deadline) {
		return errors.NewWithMessage(
			errors.ETIMEDOUT, fmt.Sprintf("controller didn't finish within %s", d.waitLimit))
	}
	runtime.Gosched()
	return nil
}

// handleEvent runs in whatever context the controller delivers completions
// from. Events that don't belong to the armed request are dropped.
func (d *Device) handleEvent(event controller.Event) {
	seq, ok := event.Context.(uint32)
	if ok && d.done.resolve(seq, event.Result) {
		return
	}
	d.logger.Warn(
		"Ignoring stray flash event",
		"op", event.Op.String(),
		"addr", event.Addr,
		"context", event.Context,
	)
}

func (d *Device) failed(op controller.Op, addr uint32, status errors.Status) error {
	d.logger.Error("Flash request failed", "op", op.String(), "addr", addr, "status", status.String())
	return fmt.Errorf("flash %s at 0x%x: %w", op, addr, errors.FromStatus(status))
}

func (d *Device) timedOut(op controller.Op, addr uint32, err error) error {
	d.logger.Error("Flash request timed out", "op", op.String(), "addr", addr, "limit", d.waitLimit)
	return fmt.Errorf("flash %s at 0x%x: %w", op, addr, err)
}
