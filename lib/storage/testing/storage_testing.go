// Package testing provides a shared test suite for the storage engine over
// any flash device implementation. Device packages (memflash, fileflash)
// invoke the suite with a factory for their driver so the same engine
// behavior is proven on every backing.
package testing

import (
	"testing"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/ValentinKolb/fKV/lib/flash/region"
	"github.com/ValentinKolb/fKV/lib/storage"
)

// DeviceFactory creates a fresh, fully erased flash device with the given
// geometry. Every call must return an independent device.
type DeviceFactory func(t *testing.T, geo flash.Geometry) flash.BlockingDriver

// RunStorageTests runs the storage engine suite against devices from the
// factory.
func RunStorageTests(t *testing.T, name string, factory DeviceFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("RoundTrip", func(t *testing.T) {
			testRoundTrip(t, factory)
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory)
		})

		t.Run("MissingKey", func(t *testing.T) {
			testMissingKey(t, factory)
		})

		t.Run("EraseAll", func(t *testing.T) {
			testEraseAll(t, factory)
		})

		t.Run("SurvivesReinit", func(t *testing.T) {
			testSurvivesReinit(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

var (
	suiteGeo       = flash.Geometry{PageSize: 512, WriteAlign: 4, Size: 4096}
	suitePlacement = region.Placement{Start: 0, End: 4096, BaseOffset: 0, PageCount: 8}
)

func newEngine(t *testing.T, dev flash.BlockingDriver) *storage.Engine {
	t.Helper()

	e, err := storage.NewEngine(dev, suitePlacement)
	if err != nil {
		t.Fatalf("engine init failed: %v", err)
	}
	return e
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testRoundTrip(t *testing.T, factory DeviceFactory) {
	e := newEngine(t, factory(t, suiteGeo))

	if err := e.SetCounter(42); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, loaded, err := e.GetCounter()
	if err != nil || !loaded || got != 42 {
		t.Errorf("expected 42, got %d (loaded=%t err=%v)", got, loaded, err)
	}

	if err := e.SetDeviceName("suite device"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	name, loaded, err := e.GetDeviceName()
	if err != nil || !loaded || name != "suite device" {
		t.Errorf("expected device name, got %q (loaded=%t err=%v)", name, loaded, err)
	}
}

func testOverwrite(t *testing.T, factory DeviceFactory) {
	e := newEngine(t, factory(t, suiteGeo))

	for i := uint32(1); i <= 10; i++ {
		if err := e.SetCounter(i); err != nil {
			t.Fatalf("set %d failed: %v", i, err)
		}
	}
	got, loaded, err := e.GetCounter()
	if err != nil || !loaded || got != 10 {
		t.Errorf("expected newest value 10, got %d (loaded=%t err=%v)", got, loaded, err)
	}
}

func testMissingKey(t *testing.T, factory DeviceFactory) {
	e := newEngine(t, factory(t, suiteGeo))

	var v codec.U32
	loaded, err := e.Get("app/calibration_factor", &v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded {
		t.Error("expected missing key to report not found")
	}
}

func testEraseAll(t *testing.T, factory DeviceFactory) {
	e := newEngine(t, factory(t, suiteGeo))

	if err := e.SetMode(2); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := e.EraseAll(); err != nil {
		t.Fatalf("erase all failed: %v", err)
	}
	if _, loaded, err := e.GetMode(); err != nil || loaded {
		t.Errorf("expected mode gone after erase (loaded=%t err=%v)", loaded, err)
	}
}

func testSurvivesReinit(t *testing.T, factory DeviceFactory) {
	dev := factory(t, suiteGeo)

	e1 := newEngine(t, dev)
	if err := e1.SetCounter(7); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// a second engine on the same device must accept the marker and see the
	// stored value
	e2 := newEngine(t, dev)
	got, loaded, err := e2.GetCounter()
	if err != nil || !loaded || got != 7 {
		t.Errorf("expected counter 7 after re-init, got %d (loaded=%t err=%v)", got, loaded, err)
	}
}
