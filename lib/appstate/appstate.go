// Package appstate holds the in-memory mirror of the device's derived
// application state and the change-notification primitive consumed by
// background logic.
//
// The mirror is a cache, not a transactional view: writers persist to flash
// first and only then update the mirror and raise the signal, so an observer
// woken by the signal is guaranteed the corresponding flash write completed.
// The reverse interleaving (flash updated, mirror still stale) is visible to
// concurrent readers and must be tolerated.
package appstate

import (
	"context"
	"sync"
)

// --------------------------------------------------------------------------
// State Type
// --------------------------------------------------------------------------

// State is the application state snapshot. It is a value type: every read
// yields an independent copy, never an aliased reference.
type State struct {
	Counter uint32
	Mode    uint8
}

// --------------------------------------------------------------------------
// Signal
// --------------------------------------------------------------------------

// Signal is a level-triggered notification with a single pending slot.
// Multiple raises before a wait coalesce into exactly one wake-up; a consumer
// that misses N raises observes one wake-up and must re-read state rather
// than assume anything about how many writes occurred.
type Signal struct {
	ch chan struct{}
}

// NewSignal creates an unraised signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Raise marks the signal pending. Overwrites any previously unconsumed
// raise; never blocks.
func (s *Signal) Raise() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait suspends until the signal is pending (consuming it) or ctx is done.
// The primitive itself has no timeout; callers needing one race it against
// ctx.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --------------------------------------------------------------------------
// Mirror
// --------------------------------------------------------------------------

// Mirror owns the last-known State and the change signal. It is the
// writer-of-record for every other task's view of application state.
//
// Thread-safety: all methods are safe for concurrent use.
type Mirror struct {
	mu     sync.Mutex
	state  State
	signal *Signal
}

// NewMirror creates a mirror seeded with the given initial state. The signal
// starts unraised: seeding is not a change.
func NewMirror(initial State) *Mirror {
	return &Mirror{state: initial, signal: NewSignal()}
}

// Read returns a copy of the current state.
func (m *Mirror) Read() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Write stores the new state and raises the change signal. Callers must have
// persisted the corresponding flash write before calling Write.
func (m *Mirror) Write(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	m.signal.Raise()
}

// Changed returns the mirror's change signal for consumers that wait on
// updates.
func (m *Mirror) Changed() *Signal {
	return m.signal
}
