package storage

import (
	"sync"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/ValentinKolb/fKV/lib/flash/region"
)

// --------------------------------------------------------------------------
// Process-wide Storage Handle
// --------------------------------------------------------------------------

// The process-wide handle is a lazily-initialized, lock-guarded cell: empty
// until Init runs exactly once, then reachable from any goroutine. Accessors
// never hand out the raw engine; every access goes through the engine's own
// lock and performs at most one flash operation.

var (
	globalMu sync.Mutex
	global   *Engine
)

// Init builds the storage engine on the given driver and installs it as the
// process-wide handle, running the validity protocol (see NewEngine). Exactly
// the first call installs; subsequent calls are ignored with a warning, since
// the validity protocol already makes initialization idempotent across power
// cycles.
func Init(dev flash.BlockingDriver, pl region.Placement) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		Logger.Warningf("storage already initialized, ignoring repeated Init")
		return nil
	}

	e, err := NewEngine(dev, pl)
	if err != nil {
		return err
	}
	global = e
	return nil
}

// handle returns the installed engine. Calling any accessor before Init is a
// programming error: there is no well-defined flash region to operate on, so
// this panics rather than returning a recoverable error.
func handle() *Engine {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		panic("storage: accessed before Init")
	}
	return global
}

// Handle returns the process-wide engine for components that hold on to it
// (the command session, the background task). Panics before Init like every
// other accessor.
func Handle() *Engine {
	return handle()
}

// Get loads the newest value for key via the process-wide handle
// (docu see Engine.Get).
func Get(key string, value codec.Value) (bool, error) {
	return handle().Get(key, value)
}

// Insert persists a key-value pair via the process-wide handle
// (docu see Engine.Insert).
func Insert(key string, value codec.Value) error {
	return handle().Insert(key, value)
}

// EraseAll wipes and re-marks the storage region via the process-wide handle
// (docu see Engine.EraseAll).
func EraseAll() error {
	return handle().EraseAll()
}

// Remove is the documented no-op stub via the process-wide handle
// (docu see Engine.Remove).
func Remove(key string) error {
	return handle().Remove(key)
}
