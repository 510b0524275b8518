// Package cache provides the key-pointer lookup-acceleration cache consumed
// by map engines: an in-memory index from fixed-width keys to the flash
// address of their newest record. Entries are advisory; a miss only costs a
// region scan, and the whole cache is dropped on erase.
package cache

import (
	"github.com/ValentinKolb/fKV/lib/kvmap"
	"github.com/puzpuzpuz/xsync/v3"
)

// keyPointerCache implements kvmap.Cache with a bounded xsync map. When the
// bound is exceeded the map is dropped wholesale; correctness never depends
// on cache contents, so cheap eviction beats bookkeeping.
type keyPointerCache struct {
	maxKeys int
	entries *xsync.MapOf[string, uint32]
}

// New creates a key-pointer cache holding at most maxKeys entries.
//
// Thread-safety: this cache is safe for concurrent use, although the engines
// consuming it are externally serialized anyway.
func New(maxKeys int) kvmap.Cache {
	return &keyPointerCache{
		maxKeys: maxKeys,
		entries: xsync.NewMapOf[string, uint32](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see kvmap.Cache)
// --------------------------------------------------------------------------

func (c *keyPointerCache) Lookup(key []byte) (uint32, bool) {
	return c.entries.Load(string(key))
}

func (c *keyPointerCache) Note(key []byte, addr uint32) {
	if c.entries.Size() >= c.maxKeys {
		if _, present := c.entries.Load(string(key)); !present {
			c.Reset()
		}
	}
	c.entries.Store(string(key), addr)
}

func (c *keyPointerCache) Invalidate(key []byte) {
	c.entries.Delete(string(key))
}

func (c *keyPointerCache) Reset() {
	c.entries.Clear()
}
