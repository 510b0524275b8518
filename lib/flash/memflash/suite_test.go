package memflash

import (
	"testing"

	"github.com/ValentinKolb/fKV/lib/flash"
	storagetesting "github.com/ValentinKolb/fKV/lib/storage/testing"
)

func TestStorageSuite(t *testing.T) {
	storagetesting.RunStorageTests(t, "memflash", func(_ *testing.T, geo flash.Geometry) flash.BlockingDriver {
		return New(geo)
	})
}
