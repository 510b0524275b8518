// Package region computes and validates the flash address range dedicated to
// persistent storage from build-time placement information.
//
// Placement addresses come from the build system (linker script or image
// layout) in logical (CPU-visible) addressing; Resolve converts them to
// device-relative addressing and validates them against the device geometry.
// Any violation is a configuration fault: the binary was built wrong, so the
// caller must abort at boot rather than attempt recovery.
package region

import (
	"fmt"

	"github.com/ValentinKolb/fKV/lib/flash"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Placement carries the build-time storage area description.
type Placement struct {
	// Start and End are the logical addresses of the reserved storage area
	// (End exclusive), as placed by the build system.
	Start uint32
	End   uint32
	// BaseOffset is subtracted from both addresses to obtain device-relative
	// addressing (e.g. 0x0800_0000 for memory-mapped flash parts).
	BaseOffset uint32
	// PageCount is the number of erase pages the storage area must span.
	PageCount uint32
}

// Region is a validated, device-relative, page-aligned address range.
type Region struct {
	Start uint32
	End   uint32
}

// Size returns the region size in bytes.
func (r Region) Size() uint32 {
	return r.End - r.Start
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return fmt.Sprintf("0x%08x..0x%08x (%d bytes)", r.Start, r.End, r.Size())
}

// --------------------------------------------------------------------------
// ConfigError
// --------------------------------------------------------------------------

// ConfigError reports an invalid storage placement. It is fatal at boot:
// continuing would operate on undefined addresses.
type ConfigError struct {
	Msg string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "storage placement error: " + e.Msg
}

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// --------------------------------------------------------------------------
// Resolver
// --------------------------------------------------------------------------

// Resolve converts the placement to device-relative addressing and validates
// it against the device geometry. It is called exactly once at boot; the
// returned Region is immutable for the lifetime of the process.
func Resolve(pl Placement, geo flash.Geometry) (Region, error) {
	if pl.Start < pl.BaseOffset || pl.End < pl.BaseOffset {
		return Region{}, configErrorf("placement 0x%08x..0x%08x below base offset 0x%08x",
			pl.Start, pl.End, pl.BaseOffset)
	}

	r := Region{Start: pl.Start - pl.BaseOffset, End: pl.End - pl.BaseOffset}

	if r.Start >= r.End {
		return Region{}, configErrorf("start 0x%08x not below end 0x%08x", r.Start, r.End)
	}
	if geo.PageSize == 0 {
		return Region{}, configErrorf("device reports zero page size")
	}
	if r.Start%geo.PageSize != 0 {
		return Region{}, configErrorf("start 0x%08x not aligned to page size %d", r.Start, geo.PageSize)
	}
	if r.End%geo.PageSize != 0 {
		return Region{}, configErrorf("end 0x%08x not aligned to page size %d", r.End, geo.PageSize)
	}
	if r.Size()%geo.PageSize != 0 {
		return Region{}, configErrorf("size %d not a multiple of page size %d", r.Size(), geo.PageSize)
	}
	if got := r.Size() / geo.PageSize; got != pl.PageCount {
		return Region{}, configErrorf("region spans %d pages, expected %d", got, pl.PageCount)
	}
	if r.End > geo.Size {
		return Region{}, configErrorf("end 0x%08x beyond device size 0x%08x", r.End, geo.Size)
	}

	return r, nil
}
