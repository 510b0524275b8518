package fileflash

import (
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/fKV/lib/flash"
	storagetesting "github.com/ValentinKolb/fKV/lib/storage/testing"
)

var testGeo = flash.Geometry{PageSize: 512, WriteAlign: 4, Size: 4096}

func TestImagePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")

	dev, err := Open(path, testGeo)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := dev.Erase(0, 512); err != nil {
		t.Fatalf("erase failed: %v", err)
	}
	if err := dev.Write(0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := Open(path, testGeo)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	buf := make([]byte, 4)
	if err := reopened.Read(0, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if buf[0] != 1 || buf[1] != 2 || buf[2] != 3 || buf[3] != 4 {
		t.Errorf("expected written bytes to survive reopen, got %v", buf)
	}
}

func TestFreshImageReadsErased(t *testing.T) {
	dev, err := Open(filepath.Join(t.TempDir(), "flash.img"), testGeo)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer dev.Close()

	buf := make([]byte, 16)
	if err := dev.Read(testGeo.Size-16, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	for i, b := range buf {
		if b != 0xFF {
			t.Fatalf("expected erased byte at %d, got 0x%02x", i, b)
		}
	}
}

// TestRejectedWriteLeavesContentsUntouched programs a range whose last bytes
// are not erased; the rejected write must not alter any byte of the range.
func TestRejectedWriteLeavesContentsUntouched(t *testing.T) {
	dev, err := Open(filepath.Join(t.TempDir(), "flash.img"), testGeo)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer dev.Close()

	// program the tail of the range so a wider rewrite hits it
	if err := dev.Write(4, []byte{9, 9, 9, 9}); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	if err := dev.Write(0, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err == nil {
		t.Fatal("expected write over programmed bytes to fail")
	}

	buf := make([]byte, 8)
	if err := dev.Read(0, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := []byte{0xFF, 0xFF, 0xFF, 0xFF, 9, 9, 9, 9}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("rejected write mutated contents: got %v, want %v", buf, want)
		}
	}
}

func TestStorageSuite(t *testing.T) {
	storagetesting.RunStorageTests(t, "fileflash", func(t *testing.T, geo flash.Geometry) flash.BlockingDriver {
		dev, err := Open(filepath.Join(t.TempDir(), "flash.img"), geo)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		t.Cleanup(func() { _ = dev.Close() })
		return dev
	})
}
