// Package bridge adapts a blocking flash driver to the suspendable
// flash.Driver contract the map engine consumes.
//
// The adaptation is a "drive to completion" bridge: every call runs the
// underlying blocking operation on the calling goroutine until it finishes.
// No other work scheduled on that goroutine makes progress in the meantime,
// and the context is consulted only between operations, never mid-flight.
// This makes every storage operation a blocking operation from the
// perspective of every caller, even though the exposed signature looks
// suspendable. The bridge has no timeout of its own; it trusts the driver's
// hardware-bounded completion guarantee.
package bridge

import (
	"context"

	"github.com/ValentinKolb/fKV/lib/flash"
)

// driverImpl wraps a flash.BlockingDriver as a flash.Driver.
type driverImpl struct {
	dev flash.BlockingDriver
}

// New returns a flash.Driver that executes every operation on dev to
// completion. The returned driver inherits dev's (lack of) thread-safety.
func New(dev flash.BlockingDriver) flash.Driver {
	return &driverImpl{dev: dev}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see flash.Driver)
// --------------------------------------------------------------------------

func (d *driverImpl) Read(ctx context.Context, addr uint32, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.dev.Read(addr, buf)
}

func (d *driverImpl) Erase(ctx context.Context, start, end uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.dev.Erase(start, end)
}

func (d *driverImpl) Write(ctx context.Context, addr uint32, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.dev.Write(addr, data)
}

func (d *driverImpl) Geometry() flash.Geometry {
	return d.dev.Geometry()
}
