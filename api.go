package norflash

// BlockDevice is the contract a log-structured filesystem engine needs from its
// storage. Every method blocks until the medium has finished the operation.
//
// Block indices and offsets are relative to the region handed to the
// filesystem; `off + len(buf)` must never exceed the erase unit size.
type BlockDevice interface {
	// Read fills `buf` with the bytes at offset `off` of erase unit `block`.
	Read(block, off uint32, buf []byte) error
	// Program writes `buf` at offset `off` of erase unit `block`. The range
	// must have been erased beforehand.
	Program(block, off uint32, buf []byte) error
	// Erase resets a whole erase unit to the medium's erased state.
	Erase(block uint32) error
	// Sync makes sure all programmed data is durable.
	Sync() error
}

// WatchdogFeed is called repeatedly while a device waits on the medium, so an
// external supervisor doesn't mistake a long erase for a hang.
type WatchdogFeed func()
