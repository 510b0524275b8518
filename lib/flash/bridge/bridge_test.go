package bridge

import (
	"context"
	"testing"

	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/ValentinKolb/fKV/lib/flash/memflash"
)

func TestBridgeRunsToCompletion(t *testing.T) {
	dev := memflash.New(flash.Geometry{PageSize: 128, WriteAlign: 4, Size: 512})
	drv := New(dev)

	ctx := context.Background()
	if err := drv.Write(ctx, 0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	buf := make([]byte, 4)
	if err := drv.Read(ctx, 0, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if buf[0] != 1 || buf[3] != 4 {
		t.Errorf("unexpected read-back: %v", buf)
	}

	if err := drv.Erase(ctx, 0, 128); err != nil {
		t.Fatalf("erase failed: %v", err)
	}
}

func TestBridgeChecksContextBetweenOps(t *testing.T) {
	dev := memflash.New(flash.Geometry{PageSize: 128, WriteAlign: 4, Size: 512})
	drv := New(dev)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := drv.Read(ctx, 0, make([]byte, 4)); err == nil {
		t.Error("expected canceled context to be reported before the operation")
	}
	if dev.ReadCount() != 0 {
		t.Errorf("expected no driver read after cancellation, got %d", dev.ReadCount())
	}
}
