// Package memflash provides an in-memory flash device with strict NOR
// semantics: bytes read back 0xFF after an erase, and a byte may only be
// programmed while it is in the erased state. It backs the test suites and
// the device simulator.
package memflash

import (
	"fmt"

	"github.com/ValentinKolb/fKV/lib/flash"
)

// --------------------------------------------------------------------------
// Device Type
// --------------------------------------------------------------------------

// Device is an in-memory flash.BlockingDriver. It additionally counts all
// operations so tests can assert properties like "the second init performed
// no erase".
//
// Thread-safety: Device is not safe for concurrent use; callers (the storage
// engine) serialize access behind their own lock.
type Device struct {
	geo  flash.Geometry
	data []byte

	// operation counters, readable via the *Count methods
	reads  int
	erases int
	writes int

	// writeErr, when non-nil, fails every subsequent Write call. Used by
	// tests to exercise the erased-but-unmarked recovery path.
	writeErr error
}

// New creates a device with the given geometry, fully erased.
func New(geo flash.Geometry) *Device {
	data := make([]byte, geo.Size)
	for i := range data {
		data[i] = 0xFF
	}
	return &Device{geo: geo, data: data}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see flash.BlockingDriver)
// --------------------------------------------------------------------------

func (d *Device) Read(addr uint32, buf []byte) error {
	d.reads++
	end := uint64(addr) + uint64(len(buf))
	if end > uint64(d.geo.Size) {
		return flash.NewError("read", addr, fmt.Errorf("read of %d bytes exceeds device size %d", len(buf), d.geo.Size))
	}
	copy(buf, d.data[addr:end])
	return nil
}

func (d *Device) Erase(start, end uint32) error {
	d.erases++
	if start%d.geo.PageSize != 0 || end%d.geo.PageSize != 0 {
		return flash.NewError("erase", start, fmt.Errorf("erase range 0x%08x..0x%08x not page aligned (page size %d)", start, end, d.geo.PageSize))
	}
	if start >= end || end > d.geo.Size {
		return flash.NewError("erase", start, fmt.Errorf("erase range 0x%08x..0x%08x out of bounds", start, end))
	}
	for i := start; i < end; i++ {
		d.data[i] = 0xFF
	}
	return nil
}

func (d *Device) Write(addr uint32, data []byte) error {
	d.writes++
	if d.writeErr != nil {
		return flash.NewError("write", addr, d.writeErr)
	}
	if addr%d.geo.WriteAlign != 0 || uint32(len(data))%d.geo.WriteAlign != 0 {
		return flash.NewError("write", addr, fmt.Errorf("write of %d bytes at 0x%08x violates alignment %d", len(data), addr, d.geo.WriteAlign))
	}
	end := uint64(addr) + uint64(len(data))
	if end > uint64(d.geo.Size) {
		return flash.NewError("write", addr, fmt.Errorf("write of %d bytes exceeds device size %d", len(data), d.geo.Size))
	}
	for i, b := range data {
		if d.data[addr+uint32(i)] != 0xFF {
			return flash.NewError("write", addr+uint32(i), fmt.Errorf("programming non-erased byte 0x%02x", d.data[addr+uint32(i)]))
		}
		d.data[addr+uint32(i)] = b
	}
	return nil
}

func (d *Device) Geometry() flash.Geometry {
	return d.geo
}

// --------------------------------------------------------------------------
// Test Hooks
// --------------------------------------------------------------------------

// ReadCount returns the number of Read calls so far.
func (d *Device) ReadCount() int { return d.reads }

// EraseCount returns the number of Erase calls so far.
func (d *Device) EraseCount() int { return d.erases }

// WriteCount returns the number of Write calls so far.
func (d *Device) WriteCount() int { return d.writes }

// FailWrites makes every subsequent Write call fail with err (nil restores
// normal operation).
func (d *Device) FailWrites(err error) { d.writeErr = err }

// Corrupt overwrites a single byte directly, bypassing NOR semantics. Tests
// use it to simulate bit rot and torn writes.
func (d *Device) Corrupt(addr uint32, b byte) {
	d.data[addr] = b
}

// Snapshot returns a copy of the raw device contents.
func (d *Device) Snapshot() []byte {
	cp := make([]byte, len(d.data))
	copy(cp, d.data)
	return cp
}
