package codec

import "testing"

func TestU32RoundTrip(t *testing.T) {
	v := U32(0xDEADBEEF)
	buf := make([]byte, v.EncodedMaxSize())

	n, err := v.MarshalRecord(buf)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got U32
	if err := got.UnmarshalRecord(buf[:n]); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got != v {
		t.Errorf("expected %#x, got %#x", uint32(v), uint32(got))
	}
}

func TestI16RoundTrip(t *testing.T) {
	for _, want := range []I16{-32768, -200, 0, 225, 32767} {
		buf := make([]byte, want.EncodedMaxSize())
		n, err := want.MarshalRecord(buf)
		if err != nil {
			t.Fatalf("marshal %d failed: %v", want, err)
		}
		var got I16
		if err := got.UnmarshalRecord(buf[:n]); err != nil {
			t.Fatalf("unmarshal %d failed: %v", want, err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
}

func TestF32RoundTrip(t *testing.T) {
	v := F32(0.125)
	buf := make([]byte, 4)
	n, _ := v.MarshalRecord(buf)

	var got F32
	if err := got.UnmarshalRecord(buf[:n]); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got != v {
		t.Errorf("expected %f, got %f", v, got)
	}
}

func TestShortBufferRejected(t *testing.T) {
	v := U32(1)
	if _, err := v.MarshalRecord(make([]byte, 3)); err == nil {
		t.Error("expected short buffer to be rejected")
	} else if _, ok := err.(*EncodeError); !ok {
		t.Errorf("expected *EncodeError, got %T", err)
	}
}

func TestTruncatedDecodeRejected(t *testing.T) {
	var v U32
	if err := v.UnmarshalRecord([]byte{1, 2}); err == nil {
		t.Error("expected truncated input to be rejected")
	} else if _, ok := err.(*DecodeError); !ok {
		t.Errorf("expected *DecodeError, got %T", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	v := String{Cap: 22, Val: "STM32L071 Device"}
	buf := make([]byte, v.EncodedMaxSize())

	n, err := v.MarshalRecord(buf)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if n != 2+len(v.Val) {
		t.Errorf("expected compact encoding of %d bytes, got %d", 2+len(v.Val), n)
	}

	got := NewString(22)
	if err := got.UnmarshalRecord(buf[:n]); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Val != v.Val {
		t.Errorf("expected %q, got %q", v.Val, got.Val)
	}
}

func TestStringCapacityEnforced(t *testing.T) {
	v := String{Cap: 4, Val: "too long"}
	if _, err := v.MarshalRecord(make([]byte, 16)); err == nil {
		t.Error("expected over-capacity string to fail encode")
	}

	// length prefix claiming more than capacity must fail decode
	got := NewString(4)
	if err := got.UnmarshalRecord([]byte{0xFF, 0x00, 'a', 'b'}); err == nil {
		t.Error("expected over-capacity length prefix to fail decode")
	}
}

func TestBytesRoundTrip(t *testing.T) {
	v := &Bytes{Data: []byte{1, 2, 3, 4, 5}}
	buf := make([]byte, v.EncodedMaxSize())
	n, err := v.MarshalRecord(buf)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	got := NewBytes(5)
	if err := got.UnmarshalRecord(buf[:n]); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if string(got.Data) != string(v.Data) {
		t.Errorf("expected %v, got %v", v.Data, got.Data)
	}

	// wrong size is a type mismatch, not a silent truncation
	other := NewBytes(4)
	if err := other.UnmarshalRecord(buf[:n]); err == nil {
		t.Error("expected size mismatch to fail decode")
	}
}
