package kvmap

import (
	"context"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definitions
// --------------------------------------------------------------------------

// Engine is the generic interface for log-structured map engines operating
// within a fixed flash region. Keys are fixed-width byte slices; the width is
// an engine construction parameter and every call must pass exactly that
// width.
//
// Thread-safety: implementations are NOT required to be safe for concurrent
// use; the storage layer serializes all access behind its own lock.
type Engine interface {
	// Fetch returns the newest value stored for key. The boolean return
	// value indicates whether an entry for the key was found; absence is not
	// an error. The returned slice is freshly allocated and owned by the
	// caller.
	Fetch(ctx context.Context, key []byte) (value []byte, loaded bool, err error)
	// Store appends a new entry for key, superseding any previous entry.
	// The engine reclaims stale space internally when the region fills.
	Store(ctx context.Context, key, value []byte) (err error)
	// EraseRange erases the engine's entire flash region and resets the
	// lookup cache. All entries are lost.
	EraseRange(ctx context.Context) (err error)
}

// Cache is an in-memory index mapping fixed-width keys to the flash address
// of their newest record. It only accelerates lookups: a miss means "scan",
// never "absent", and a stale hit is detected by the engine when the record
// key does not match.
type Cache interface {
	// Lookup returns the last noted record address for the key.
	Lookup(key []byte) (addr uint32, ok bool)
	// Note records the newest record address for the key.
	Note(key []byte, addr uint32)
	// Invalidate removes a single key from the cache.
	Invalidate(key []byte)
	// Reset drops the entire cache. Called after every erase.
	Reset()
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// ErrorKind classifies engine failures.
type ErrorKind uint64

const (
	// ErrCorrupted means stored bytes failed the engine's integrity check.
	ErrCorrupted ErrorKind = iota
	// ErrFullStorage means no free space is left even after reclamation.
	ErrFullStorage
	// ErrItemTooBig means the record can never fit the engine's scratch
	// buffer, irrespective of free space.
	ErrItemTooBig
	// ErrBufferTooSmall means the record exceeds the configured scratch
	// buffer. Always detected before any flash mutation.
	ErrBufferTooSmall
	// ErrStorage wraps a failure of the underlying flash driver.
	ErrStorage
)

func (k ErrorKind) String() string {
	switch k {
	case ErrCorrupted:
		return "Corrupted"
	case ErrFullStorage:
		return "FullStorage"
	case ErrItemTooBig:
		return "ItemTooBig"
	case ErrBufferTooSmall:
		return "BufferTooSmall"
	case ErrStorage:
		return "Storage"
	default:
		return "Unknown"
	}
}

// Error is the structured error type reported by map engines. It wraps a
// kind, a message and (for ErrStorage) the underlying driver error.
type Error struct {
	Kind ErrorKind // classification of the failure
	Msg  string    // human-readable description
	Err  error     // underlying cause, nil unless Kind == ErrStorage
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("MapError (%s): %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("MapError (%s): %s", e.Kind, e.Msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given kind and message.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapStorage creates an ErrStorage Error around a driver failure.
func WrapStorage(msg string, err error) *Error {
	return &Error{Kind: ErrStorage, Msg: msg, Err: err}
}

// KindOf extracts the ErrorKind from an error. The boolean return value
// indicates whether err is a map engine error at all.
func KindOf(err error) (ErrorKind, bool) {
	if e, ok := err.(*Error); ok {
		return e.Kind, true
	}
	return 0, false
}
