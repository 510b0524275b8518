package cache

import "testing"

func key(s string) []byte {
	k := make([]byte, 8)
	copy(k, s)
	return k
}

func TestLookupAfterNote(t *testing.T) {
	c := New(16)

	if _, ok := c.Lookup(key("a")); ok {
		t.Error("expected miss on empty cache")
	}

	c.Note(key("a"), 0x100)
	addr, ok := c.Lookup(key("a"))
	if !ok || addr != 0x100 {
		t.Errorf("expected hit at 0x100, got %#x (ok=%t)", addr, ok)
	}

	// newest note wins
	c.Note(key("a"), 0x200)
	if addr, _ := c.Lookup(key("a")); addr != 0x200 {
		t.Errorf("expected updated address 0x200, got %#x", addr)
	}
}

func TestInvalidateAndReset(t *testing.T) {
	c := New(16)
	c.Note(key("a"), 1)
	c.Note(key("b"), 2)

	c.Invalidate(key("a"))
	if _, ok := c.Lookup(key("a")); ok {
		t.Error("expected miss after invalidate")
	}
	if _, ok := c.Lookup(key("b")); !ok {
		t.Error("expected other keys to survive invalidate")
	}

	c.Reset()
	if _, ok := c.Lookup(key("b")); ok {
		t.Error("expected miss after reset")
	}
}

func TestBoundedEviction(t *testing.T) {
	c := New(2)
	c.Note(key("a"), 1)
	c.Note(key("b"), 2)
	c.Note(key("c"), 3) // exceeds bound, cache dropped wholesale

	if addr, ok := c.Lookup(key("c")); !ok || addr != 3 {
		t.Errorf("expected newest entry to survive eviction, got %#x (ok=%t)", addr, ok)
	}
}
