package storage

import (
	"fmt"

	"github.com/ValentinKolb/fKV/lib/kvmap"
)

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

// ErrKind classifies storage failures. The taxonomy is shared by the command
// layer and the application logic; callers branch on the kind, never on the
// message.
type ErrKind uint64

const (
	// KindCorrupted means stored bytes failed the map engine's integrity
	// check, or decoding failed after a successful fetch. The two collapse
	// into one kind since neither is separately actionable.
	KindCorrupted ErrKind = iota
	// KindDriverFailure wraps the flash driver's native error.
	KindDriverFailure
	// KindBufferTooSmall means the estimated record size exceeds the fixed
	// scratch buffer. Always detected before any flash mutation.
	KindBufferTooSmall
	// KindRecordTooLarge means the value's declared maximum size alone can
	// never fit the configured capacity, irrespective of buffer headroom.
	KindRecordTooLarge
	// KindKeyTooLong means the key exceeds the fixed key width. Rejected
	// before any flash access; such a key cannot be used at all.
	KindKeyTooLong
	// KindFullStorage means no free space remained even after reclamation.
	KindFullStorage
	// KindUnmarked means a full erase succeeded but the validity marker
	// rewrite failed: the region is erased but must not be trusted until
	// another full erase pass completes.
	KindUnmarked
)

func (k ErrKind) String() string {
	switch k {
	case KindCorrupted:
		return "Corrupted"
	case KindDriverFailure:
		return "DriverFailure"
	case KindBufferTooSmall:
		return "BufferTooSmall"
	case KindRecordTooLarge:
		return "RecordTooLarge"
	case KindKeyTooLong:
		return "KeyTooLong"
	case KindFullStorage:
		return "FullStorage"
	case KindUnmarked:
		return "Unmarked"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the structured error type returned by every storage operation.
type Error struct {
	Kind ErrKind // classification of the failure
	Msg  string  // human-readable description
	Err  error   // underlying cause (driver or engine error), may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("StorageError (%s): %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("StorageError (%s): %s", e.Kind, e.Msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given kind and message.
func NewError(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf extracts the ErrKind from an error. The boolean return value
// indicates whether err is a storage error at all.
func KindOf(err error) (ErrKind, bool) {
	if e, ok := err.(*Error); ok {
		return e.Kind, true
	}
	return 0, false
}

// fromMapError translates a map engine error into the storage taxonomy.
func fromMapError(err error) *Error {
	kind, ok := kvmap.KindOf(err)
	if !ok {
		return &Error{Kind: KindDriverFailure, Msg: "storage operation failed", Err: err}
	}
	switch kind {
	case kvmap.ErrCorrupted:
		return &Error{Kind: KindCorrupted, Msg: "stored data failed integrity check", Err: err}
	case kvmap.ErrBufferTooSmall:
		return &Error{Kind: KindBufferTooSmall, Msg: "record exceeds scratch buffer", Err: err}
	case kvmap.ErrItemTooBig:
		return &Error{Kind: KindRecordTooLarge, Msg: "record exceeds configured capacity", Err: err}
	case kvmap.ErrFullStorage:
		return &Error{Kind: KindFullStorage, Msg: "storage region is full", Err: err}
	default: // kvmap.ErrStorage
		return &Error{Kind: KindDriverFailure, Msg: "flash driver failure", Err: err}
	}
}
