package flash

import (
	"context"
	"fmt"
)

// --------------------------------------------------------------------------
// Device Geometry
// --------------------------------------------------------------------------

// Geometry describes the physical layout constraints of a flash device.
// All fields are in bytes.
type Geometry struct {
	// PageSize is the erase granule: the smallest region that can be erased
	// atomically. Writes to a byte are undefined unless the page containing
	// it has been erased since the last write.
	PageSize uint32
	// WriteAlign is the alignment and minimum size of a single program
	// operation (e.g. 4 for word-programmed parts).
	WriteAlign uint32
	// Size is the total device size.
	Size uint32
}

// --------------------------------------------------------------------------
// Driver Interfaces
// --------------------------------------------------------------------------

// Driver is the suspendable flash contract consumed by the map engine.
// All addresses are device-relative (the region resolver handles the
// conversion from linker/placement addresses).
//
// Thread-safety: implementations are NOT required to be safe for concurrent
// use. The storage engine serializes all access behind its own lock.
type Driver interface {
	// Read fills buf with len(buf) bytes starting at addr.
	Read(ctx context.Context, addr uint32, buf []byte) error
	// Erase erases the pages covering [start, end). Both addresses must be
	// page-aligned.
	Erase(ctx context.Context, start, end uint32) error
	// Write programs data at addr. The address and length must satisfy the
	// device's write alignment, and the target bytes must be in the erased
	// state.
	Write(ctx context.Context, addr uint32, data []byte) error
	// Geometry returns the device layout constraints.
	Geometry() Geometry
}

// BlockingDriver is the contract real hardware drivers provide: the same
// operations as Driver but with no suspension points. Every call runs to
// completion on the calling goroutine, bounded only by the hardware timeout
// the driver itself implements.
type BlockingDriver interface {
	Read(addr uint32, buf []byte) error
	Erase(start, end uint32) error
	Write(addr uint32, data []byte) error
	Geometry() Geometry
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error wraps a failed driver operation with the operation name and the
// device-relative address at which it failed.
type Error struct {
	Op   string // "read", "erase" or "write"
	Addr uint32 // device-relative address of the failure
	Err  error  // underlying cause, may be nil for pure protocol violations
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flash %s at 0x%08x: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("flash %s at 0x%08x failed", e.Op, e.Addr)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new flash Error for the given operation and address.
func NewError(op string, addr uint32, err error) *Error {
	return &Error{Op: op, Addr: addr, Err: err}
}
