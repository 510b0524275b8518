package memflash

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/fKV/lib/flash"
)

var testGeo = flash.Geometry{PageSize: 128, WriteAlign: 4, Size: 1024}

func TestEraseSetsAllBytes(t *testing.T) {
	d := New(testGeo)

	if err := d.Write(0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := d.Erase(0, 128); err != nil {
		t.Fatalf("erase failed: %v", err)
	}

	buf := make([]byte, 8)
	if err := d.Read(0, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(buf, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("expected erased bytes, got %v", buf)
	}
}

func TestWriteRequiresErasedBytes(t *testing.T) {
	d := New(testGeo)

	if err := d.Write(0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := d.Write(0, []byte{5, 6, 7, 8}); err == nil {
		t.Error("expected rewrite without erase to fail")
	}
}

func TestEraseRejectsUnalignedRange(t *testing.T) {
	d := New(testGeo)

	if err := d.Erase(0, 100); err == nil {
		t.Error("expected unaligned erase end to fail")
	}
	if err := d.Erase(64, 256); err == nil {
		t.Error("expected unaligned erase start to fail")
	}
}

func TestWriteRejectsUnaligned(t *testing.T) {
	d := New(testGeo)

	if err := d.Write(2, []byte{1, 2, 3, 4}); err == nil {
		t.Error("expected unaligned write address to fail")
	}
	if err := d.Write(0, []byte{1, 2, 3}); err == nil {
		t.Error("expected unaligned write length to fail")
	}
}

func TestBoundsChecks(t *testing.T) {
	d := New(testGeo)

	if err := d.Write(1024, []byte{1, 2, 3, 4}); err == nil {
		t.Error("expected out-of-bounds write to fail")
	}
	if err := d.Read(1020, make([]byte, 8)); err == nil {
		t.Error("expected out-of-bounds read to fail")
	}
	if err := d.Erase(896, 1152); err == nil {
		t.Error("expected out-of-bounds erase to fail")
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	d := New(testGeo)

	if err := d.Write(0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	snap := d.Snapshot()
	if !bytes.Equal(snap[:4], []byte{1, 2, 3, 4}) {
		t.Errorf("snapshot missing written bytes, got %v", snap[:4])
	}

	// mutating the snapshot must not touch the device
	snap[0] = 0xEE
	buf := make([]byte, 4)
	if err := d.Read(0, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(buf, []byte{1, 2, 3, 4}) {
		t.Errorf("device contents changed through snapshot, got %v", buf)
	}
}

func TestOperationCounters(t *testing.T) {
	d := New(testGeo)

	_ = d.Write(0, []byte{1, 2, 3, 4})
	_ = d.Erase(0, 128)
	_ = d.Read(0, make([]byte, 4))
	_ = d.Read(4, make([]byte, 4))

	if d.WriteCount() != 1 || d.EraseCount() != 1 || d.ReadCount() != 2 {
		t.Errorf("unexpected counters: writes=%d erases=%d reads=%d",
			d.WriteCount(), d.EraseCount(), d.ReadCount())
	}
}
