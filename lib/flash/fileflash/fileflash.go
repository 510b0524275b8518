// Package fileflash provides a flash.BlockingDriver backed by an image file,
// so simulator state survives restarts. The NOR semantics mirror memflash:
// erase fills pages with 0xFF and a byte may only be programmed while erased.
package fileflash

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/fKV/lib/flash"
)

// Device is a file-backed flash.BlockingDriver.
//
// Thread-safety: Device is not safe for concurrent use; the storage engine
// serializes access behind its own lock.
type Device struct {
	geo  flash.Geometry
	file *os.File
	data []byte // in-memory copy, written through to the file
}

// Open opens (or creates) the image file at path. A missing or short image
// is extended to the full device size in the erased state.
func Open(path string, geo flash.Geometry) (*Device, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open flash image %s: %v", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat flash image %s: %v", path, err)
	}

	data := make([]byte, geo.Size)
	for i := range data {
		data[i] = 0xFF
	}

	if info.Size() > 0 {
		if _, err := file.ReadAt(data[:min(info.Size(), int64(geo.Size))], 0); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to read flash image %s: %v", path, err)
		}
	}

	// normalize the image to the full device size
	if info.Size() != int64(geo.Size) {
		if _, err := file.WriteAt(data, 0); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to initialize flash image %s: %v", path, err)
		}
		if err := file.Truncate(int64(geo.Size)); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to size flash image %s: %v", path, err)
		}
	}

	return &Device{geo: geo, file: file, data: data}, nil
}

// Close flushes and closes the underlying image file.
func (d *Device) Close() error {
	if err := d.file.Sync(); err != nil {
		_ = d.file.Close()
		return err
	}
	return d.file.Close()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see flash.BlockingDriver)
// --------------------------------------------------------------------------

func (d *Device) Read(addr uint32, buf []byte) error {
	end := uint64(addr) + uint64(len(buf))
	if end > uint64(d.geo.Size) {
		return flash.NewError("read", addr, fmt.Errorf("read of %d bytes exceeds device size %d", len(buf), d.geo.Size))
	}
	copy(buf, d.data[addr:end])
	return nil
}

func (d *Device) Erase(start, end uint32) error {
	if start%d.geo.PageSize != 0 || end%d.geo.PageSize != 0 {
		return flash.NewError("erase", start, fmt.Errorf("erase range 0x%08x..0x%08x not page aligned (page size %d)", start, end, d.geo.PageSize))
	}
	if start >= end || end > d.geo.Size {
		return flash.NewError("erase", start, fmt.Errorf("erase range 0x%08x..0x%08x out of bounds", start, end))
	}
	for i := start; i < end; i++ {
		d.data[i] = 0xFF
	}
	if _, err := d.file.WriteAt(d.data[start:end], int64(start)); err != nil {
		return flash.NewError("erase", start, err)
	}
	return nil
}

func (d *Device) Write(addr uint32, data []byte) error {
	if addr%d.geo.WriteAlign != 0 || uint32(len(data))%d.geo.WriteAlign != 0 {
		return flash.NewError("write", addr, fmt.Errorf("write of %d bytes at 0x%08x violates alignment %d", len(data), addr, d.geo.WriteAlign))
	}
	end := uint64(addr) + uint64(len(data))
	if end > uint64(d.geo.Size) {
		return flash.NewError("write", addr, fmt.Errorf("write of %d bytes exceeds device size %d", len(data), d.geo.Size))
	}
	// validate the whole range before mutating anything, so a rejected
	// write leaves memory and file untouched
	for i := range data {
		if d.data[addr+uint32(i)] != 0xFF {
			return flash.NewError("write", addr+uint32(i), fmt.Errorf("programming non-erased byte 0x%02x", d.data[addr+uint32(i)]))
		}
	}
	copy(d.data[addr:end], data)
	if _, err := d.file.WriteAt(d.data[addr:end], int64(addr)); err != nil {
		return flash.NewError("write", addr, err)
	}
	return nil
}

func (d *Device) Geometry() flash.Geometry {
	return d.geo
}
