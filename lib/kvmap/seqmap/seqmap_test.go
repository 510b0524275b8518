package seqmap

import (
	"context"
	"fmt"
	"testing"

	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/ValentinKolb/fKV/lib/flash/bridge"
	"github.com/ValentinKolb/fKV/lib/flash/memflash"
	"github.com/ValentinKolb/fKV/lib/flash/region"
	"github.com/ValentinKolb/fKV/lib/kvmap"
	"github.com/ValentinKolb/fKV/lib/kvmap/cache"
)

const testKeyWidth = 16

// newTestEngine creates an engine over a fresh two-page in-memory device.
func newTestEngine(t *testing.T) (kvmap.Engine, *memflash.Device) {
	t.Helper()

	dev := memflash.New(flash.Geometry{PageSize: 128, WriteAlign: 4, Size: 512})
	reg, err := region.Resolve(region.Placement{Start: 0, End: 256, PageCount: 2}, dev.Geometry())
	if err != nil {
		t.Fatalf("region resolve failed: %v", err)
	}
	eng := New(bridge.New(dev), reg, cache.New(16), Options{KeyWidth: testKeyWidth, ScratchSize: 128})
	return eng, dev
}

func key(s string) []byte {
	k := make([]byte, testKeyWidth)
	copy(k, s)
	return k
}

func TestStoreFetchRoundTrip(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	if err := eng.Store(ctx, key("alpha"), []byte{1, 2, 3}); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	value, loaded, err := eng.Fetch(ctx, key("alpha"))
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !loaded {
		t.Fatal("expected key to be found")
	}
	if string(value) != string([]byte{1, 2, 3}) {
		t.Errorf("unexpected value: %v", value)
	}
}

func TestFetchMissingKey(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, loaded, err := eng.Fetch(context.Background(), key("nope"))
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if loaded {
		t.Error("expected missing key to report not found")
	}
}

func TestNewestEntryWins(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := eng.Store(ctx, key("k"), []byte{byte(i)}); err != nil {
			t.Fatalf("store %d failed: %v", i, err)
		}
	}

	value, loaded, err := eng.Fetch(ctx, key("k"))
	if err != nil || !loaded {
		t.Fatalf("fetch failed: loaded=%t err=%v", loaded, err)
	}
	if value[0] != 2 {
		t.Errorf("expected newest value 2, got %d", value[0])
	}
}

func TestStateSurvivesReload(t *testing.T) {
	dev := memflash.New(flash.Geometry{PageSize: 128, WriteAlign: 4, Size: 512})
	reg, _ := region.Resolve(region.Placement{Start: 0, End: 256, PageCount: 2}, dev.Geometry())
	ctx := context.Background()

	eng := New(bridge.New(dev), reg, cache.New(16), Options{KeyWidth: testKeyWidth, ScratchSize: 128})
	if err := eng.Store(ctx, key("boot"), []byte{42}); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	// a fresh engine over the same device simulates a power cycle
	reloaded := New(bridge.New(dev), reg, cache.New(16), Options{KeyWidth: testKeyWidth, ScratchSize: 128})
	value, loaded, err := reloaded.Fetch(ctx, key("boot"))
	if err != nil || !loaded {
		t.Fatalf("fetch after reload failed: loaded=%t err=%v", loaded, err)
	}
	if value[0] != 42 {
		t.Errorf("expected 42 after reload, got %d", value[0])
	}

	// appends must continue where the previous engine left off
	if err := reloaded.Store(ctx, key("boot"), []byte{43}); err != nil {
		t.Fatalf("store after reload failed: %v", err)
	}
	value, _, _ = reloaded.Fetch(ctx, key("boot"))
	if value[0] != 43 {
		t.Errorf("expected 43 after second store, got %d", value[0])
	}
}

func TestCompactionReclaimsSupersededEntries(t *testing.T) {
	eng, dev := newTestEngine(t)
	ctx := context.Background()

	// two pages hold 8 records of this size, so 20 updates force reclamation
	for i := 0; i < 20; i++ {
		if err := eng.Store(ctx, key("counter"), []byte{byte(i), 0, 0, 0}); err != nil {
			t.Fatalf("store %d failed: %v", i, err)
		}
	}
	if dev.EraseCount() == 0 {
		t.Error("expected reclamation to erase stale pages")
	}

	value, loaded, err := eng.Fetch(ctx, key("counter"))
	if err != nil || !loaded {
		t.Fatalf("fetch failed: loaded=%t err=%v", loaded, err)
	}
	if value[0] != 19 {
		t.Errorf("expected newest value 19 after reclamation, got %d", value[0])
	}
}

func TestFullStorage(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	var err error
	for i := 0; i < 9; i++ {
		err = eng.Store(ctx, key(fmt.Sprintf("k%d", i)), []byte{byte(i), 0, 0, 0})
		if err != nil {
			break
		}
	}
	if err == nil {
		t.Fatal("expected the region to fill up")
	}
	if kind, ok := kvmap.KindOf(err); !ok || kind != kvmap.ErrFullStorage {
		t.Errorf("expected FullStorage, got %v", err)
	}
}

func TestRecordTooLargeForScratch(t *testing.T) {
	eng, dev := newTestEngine(t)

	writesBefore := dev.WriteCount()
	err := eng.Store(context.Background(), key("big"), make([]byte, 120))
	if err == nil {
		t.Fatal("expected oversized record to be rejected")
	}
	if kind, ok := kvmap.KindOf(err); !ok || kind != kvmap.ErrBufferTooSmall {
		t.Errorf("expected BufferTooSmall, got %v", err)
	}
	if dev.WriteCount() != writesBefore {
		t.Error("expected rejection before any flash mutation")
	}
}

func TestCorruptionDetected(t *testing.T) {
	eng, dev := newTestEngine(t)
	ctx := context.Background()

	if err := eng.Store(ctx, key("good"), []byte{1, 2, 3}); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	// flip a value byte inside the first record (page header is 4 bytes,
	// record header 6, key follows)
	dev.Corrupt(4+6+testKeyWidth, 0xEE)

	// new engine so no cache entry hides the damage
	reg, _ := region.Resolve(region.Placement{Start: 0, End: 256, PageCount: 2}, dev.Geometry())
	fresh := New(bridge.New(dev), reg, cache.New(16), Options{KeyWidth: testKeyWidth, ScratchSize: 128})

	_, _, err := fresh.Fetch(ctx, key("good"))
	if err == nil {
		t.Fatal("expected corrupted record to be detected")
	}
	if kind, ok := kvmap.KindOf(err); !ok || kind != kvmap.ErrCorrupted {
		t.Errorf("expected Corrupted, got %v", err)
	}
}

func TestEraseRange(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	if err := eng.Store(ctx, key("gone"), []byte{9}); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := eng.EraseRange(ctx); err != nil {
		t.Fatalf("erase failed: %v", err)
	}

	_, loaded, err := eng.Fetch(ctx, key("gone"))
	if err != nil {
		t.Fatalf("fetch after erase failed: %v", err)
	}
	if loaded {
		t.Error("expected no entries after erase")
	}

	// the region must be writable again
	if err := eng.Store(ctx, key("fresh"), []byte{1}); err != nil {
		t.Fatalf("store after erase failed: %v", err)
	}
}

func TestKeyWidthEnforced(t *testing.T) {
	eng, _ := newTestEngine(t)

	if err := eng.Store(context.Background(), []byte("short"), []byte{1}); err == nil {
		t.Error("expected wrong key width to be rejected")
	}
	if _, _, err := eng.Fetch(context.Background(), make([]byte, testKeyWidth+1)); err == nil {
		t.Error("expected wrong key width to be rejected")
	}
}
