package appstate

import (
	"context"
	"testing"
	"time"
)

func TestReadReturnsCopy(t *testing.T) {
	m := NewMirror(State{Counter: 7, Mode: 1})

	s := m.Read()
	s.Counter = 99

	if got := m.Read().Counter; got != 7 {
		t.Errorf("mutating a snapshot leaked into the mirror: counter=%d", got)
	}
}

func TestWriteRaisesSignal(t *testing.T) {
	m := NewMirror(State{})
	m.Write(State{Counter: 1})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Changed().Wait(ctx); err != nil {
		t.Fatalf("expected signal to be pending: %v", err)
	}
}

func TestSignalCoalescesRaises(t *testing.T) {
	m := NewMirror(State{})

	// two writes before any consumer waits
	m.Write(State{Counter: 1})
	m.Write(State{Counter: 2})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// exactly one wake-up...
	if err := m.Changed().Wait(ctx); err != nil {
		t.Fatalf("expected one pending wake-up: %v", err)
	}

	// ...and the state read afterwards is the second write's value
	if got := m.Read().Counter; got != 2 {
		t.Errorf("expected counter 2 after coalesced raises, got %d", got)
	}

	// no second wake-up is pending
	short, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	if err := m.Changed().Wait(short); err == nil {
		t.Error("expected no second pending wake-up")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	s := NewSignal()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Wait(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Error("expected context error from canceled wait")
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not return after cancellation")
	}
}

func TestWaiterWokenByRaise(t *testing.T) {
	s := NewSignal()

	done := make(chan struct{})
	go func() {
		_ = s.Wait(context.Background())
		close(done)
	}()

	// give the waiter a moment to park, then raise
	time.Sleep(10 * time.Millisecond)
	s.Raise()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by raise")
	}
}
