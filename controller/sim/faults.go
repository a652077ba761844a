package sim

import (
	"github.com/dargueta/norflash/errors"
)

// FailInit makes the next Init call return `status`.
func (c *Controller) FailInit(status errors.Status) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.failInit = status
}

// FailNextRead makes the next Read return `status` without touching `buf`.
func (c *Controller) FailNextRead(status errors.Status) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.failNextRead = status
}

// FailNextWrite accepts the next write but reports `status` in its completion
// event. The flash contents are left untouched.
func (c *Controller) FailNextWrite(status errors.Status) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.failNextWrite = status
}

// FailNextErase accepts the next erase but reports `status` in its completion
// event. The flash contents are left untouched.
func (c *Controller) FailNextErase(status errors.Status) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.failNextErase = status
}

// RejectNextWrite makes the next Write return `status` immediately, without
// starting anything.
func (c *Controller) RejectNextWrite(status errors.Status) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.rejectNextWrite = status
}

// RejectNextErase makes the next Erase return `status` immediately.
func (c *Controller) RejectNextErase(status errors.Status) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.rejectNextErase = status
}

// DropNextEvent carries out the next program or erase but never calls the
// event handler for it, like a lost interrupt.
func (c *Controller) DropNextEvent() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.dropNextEvent = true
}

////////////////////////////////////////////////////////////////////////////////
// Inspection

// Quiesce blocks until every accepted request has finished and its event (if
// any) has been delivered.
func (c *Controller) Quiesce() {
	c.pending.Wait()
}

// Pages gives the number of erase units in the bound region.
func (c *Controller) Pages() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.eraseCounts)
}

// EraseCount gives how many times `page` has been erased.
func (c *Controller) EraseCount(page int) uint32 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.eraseCounts[page]
}

// Dirty reports whether `page` has been programmed since it was last erased.
func (c *Controller) Dirty(page int) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.dirtyPages.Get(page)
}

// Events gives the number of program and erase requests that have completed,
// including ones whose event was dropped.
func (c *Controller) Events() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.events
}

// BusyPolled gives the number of times IsBusy has been called.
func (c *Controller) BusyPolled() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.busyPolled
}

// Snapshot returns a copy of the entire bound region.
func (c *Controller) Snapshot() ([]byte, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.initialized {
		return nil, errors.NewWithMessage(errors.EINVAL, "controller is not initialized")
	}
	data := make([]byte, c.end-c.start)
	if err := c.readAt(c.start, data); err != nil {
		return nil, errors.NewFromError(errors.EIO, err)
	}
	return data, nil
}
