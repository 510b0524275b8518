// Package seqmap implements the kvmap.Engine contract as an append-only page
// log on raw NOR flash.
//
// Layout: the configured region is divided into erase pages used strictly in
// order. A used page starts with a 4-byte magic word; records follow back to
// back, each framed as
//
//	crc32 (4) | value length (2) | key (fixed width) | value | zero padding
//
// padded to the device write alignment so every record is a single aligned
// program operation. Erased flash reads 0xFF, so an all-0xFF record header
// terminates the scan of a page. The newest record for a key wins. When the
// region fills, live entries are compacted to the front of the region and
// the remainder is erased.
package seqmap

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/ValentinKolb/fKV/lib/flash/region"
	"github.com/ValentinKolb/fKV/lib/kvmap"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	pageMagic  uint32 = 0x314B5646 // "FVK1", marks a page as in use
	pageHdrLen        = 4
	recHdrLen         = 6 // crc32 (4) + value length (2)

	defaultKeyWidth    = 64
	defaultScratchSize = 256
)

// --------------------------------------------------------------------------
// Engine Type and Options
// --------------------------------------------------------------------------

// Options configures the engine during initialization.
type Options struct {
	KeyWidth    int // fixed key width in bytes (0 = default: 64)
	ScratchSize int // scratch buffer size, caps the total record size (0 = default: 256)
}

// engineImpl implements kvmap.Engine over a flash.Driver and a Region.
type engineImpl struct {
	drv      flash.Driver
	reg      region.Region
	cache    kvmap.Cache
	keyWidth int
	scratch  []byte

	// cursor state, rebuilt lazily from flash on the first operation
	loaded     bool
	cursorPage uint32 // index of the page currently receiving writes
	cursorOff  uint32 // next free offset within the cursor page
	pageInUse  bool   // whether the cursor page already carries its magic
}

// New creates a sequential map engine for the given driver, validated region
// and lookup cache (which may be nil to disable lookup acceleration).
//
// Thread-safety: the engine is not safe for concurrent use; callers must
// serialize access.
func New(drv flash.Driver, reg region.Region, c kvmap.Cache, opts Options) kvmap.Engine {
	if opts.KeyWidth <= 0 {
		opts.KeyWidth = defaultKeyWidth
	}
	if opts.ScratchSize <= 0 {
		opts.ScratchSize = defaultScratchSize
	}
	return &engineImpl{
		drv:      drv,
		reg:      reg,
		cache:    c,
		keyWidth: opts.KeyWidth,
		scratch:  make([]byte, opts.ScratchSize),
	}
}

// --------------------------------------------------------------------------
// Geometry Helpers
// --------------------------------------------------------------------------

func (e *engineImpl) pageSize() uint32  { return e.drv.Geometry().PageSize }
func (e *engineImpl) pageCount() uint32 { return e.reg.Size() / e.pageSize() }

func (e *engineImpl) pageStart(page uint32) uint32 {
	return e.reg.Start + page*e.pageSize()
}

// align rounds n up to the device write alignment.
func (e *engineImpl) align(n uint32) uint32 {
	a := e.drv.Geometry().WriteAlign
	return (n + a - 1) / a * a
}

// recordSize returns the aligned on-flash size of a record with the given
// value length.
func (e *engineImpl) recordSize(valueLen int) uint32 {
	return e.align(uint32(recHdrLen + e.keyWidth + valueLen))
}

// --------------------------------------------------------------------------
// Interface Methods (docu see kvmap.Engine)
// --------------------------------------------------------------------------

func (e *engineImpl) Fetch(ctx context.Context, key []byte) ([]byte, bool, error) {
	if err := e.checkKey(key); err != nil {
		return nil, false, err
	}
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, false, err
	}

	// fast path: key-pointer cache hit
	if e.cache != nil {
		if addr, ok := e.cache.Lookup(key); ok {
			value, match, err := e.readRecordAt(ctx, addr, key)
			if err != nil {
				return nil, false, err
			}
			if match {
				return value, true, nil
			}
			// stale pointer, fall back to the scan below
			e.cache.Invalidate(key)
		}
	}

	// slow path: scan every used page, newest record wins
	var (
		found bool
		value []byte
	)
	err := e.scanRegion(ctx, func(addr uint32, recKey, recValue []byte) {
		if bytes.Equal(recKey, key) {
			found = true
			value = append(value[:0], recValue...)
			if e.cache != nil {
				e.cache.Note(key, addr)
			}
		}
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return value, true, nil
}

func (e *engineImpl) Store(ctx context.Context, key, value []byte) error {
	if err := e.checkKey(key); err != nil {
		return err
	}
	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}

	need := e.recordSize(len(value))
	if int(need) > len(e.scratch) {
		return kvmap.NewError(kvmap.ErrBufferTooSmall,
			fmt.Sprintf("record of %d bytes exceeds scratch buffer of %d bytes", need, len(e.scratch)))
	}
	if pageHdrLen+need > e.pageSize() {
		return kvmap.NewError(kvmap.ErrItemTooBig,
			fmt.Sprintf("record of %d bytes can never fit a %d byte page", need, e.pageSize()))
	}

	// advance to the next page when the current one has no room left
	if e.cursorOff+need > e.pageSize() {
		if e.cursorPage+1 >= e.pageCount() {
			if err := e.compact(ctx); err != nil {
				return err
			}
			// retry after reclamation
			if e.cursorOff+need > e.pageSize() && e.cursorPage+1 >= e.pageCount() {
				return kvmap.NewError(kvmap.ErrFullStorage, "no free space after reclamation")
			}
			if e.cursorOff+need > e.pageSize() {
				e.cursorPage++
				e.cursorOff = pageHdrLen
				e.pageInUse = false
			}
		} else {
			e.cursorPage++
			e.cursorOff = pageHdrLen
			e.pageInUse = false
		}
	}

	return e.appendRecord(ctx, key, value)
}

func (e *engineImpl) EraseRange(ctx context.Context) error {
	if err := e.drv.Erase(ctx, e.reg.Start, e.reg.End); err != nil {
		return kvmap.WrapStorage("erase of storage region failed", err)
	}
	if e.cache != nil {
		e.cache.Reset()
	}
	e.loaded = true
	e.cursorPage = 0
	e.cursorOff = pageHdrLen
	e.pageInUse = false
	return nil
}

// --------------------------------------------------------------------------
// Record Encoding
// --------------------------------------------------------------------------

// encodeRecord frames key and value into the scratch buffer and returns the
// aligned record slice.
func (e *engineImpl) encodeRecord(key, value []byte) []byte {
	size := e.recordSize(len(value))
	rec := e.scratch[:size]
	for i := range rec {
		rec[i] = 0
	}
	binary.LittleEndian.PutUint16(rec[4:6], uint16(len(value)))
	copy(rec[recHdrLen:], key)
	copy(rec[recHdrLen+e.keyWidth:], value)
	crc := crc32.ChecksumIEEE(rec[4 : recHdrLen+e.keyWidth+len(value)])
	binary.LittleEndian.PutUint32(rec[0:4], crc)
	return rec
}

// appendRecord writes a record at the cursor, stamping the page magic first
// if the page is still fresh.
func (e *engineImpl) appendRecord(ctx context.Context, key, value []byte) error {
	pageAddr := e.pageStart(e.cursorPage)

	if !e.pageInUse {
		var hdr [pageHdrLen]byte
		binary.LittleEndian.PutUint32(hdr[:], pageMagic)
		if err := e.drv.Write(ctx, pageAddr, hdr[:]); err != nil {
			return kvmap.WrapStorage("page header write failed", err)
		}
		e.pageInUse = true
		e.cursorOff = pageHdrLen
	}

	rec := e.encodeRecord(key, value)
	addr := pageAddr + e.cursorOff
	if err := e.drv.Write(ctx, addr, rec); err != nil {
		return kvmap.WrapStorage("record write failed", err)
	}
	e.cursorOff += uint32(len(rec))

	if e.cache != nil {
		e.cache.Note(key, addr)
	}
	return nil
}

// readRecordAt verifies and reads a single record at a cached address. It
// returns match=false (without error) when the address does not hold a
// plausible record for the key, so the caller can fall back to a scan.
func (e *engineImpl) readRecordAt(ctx context.Context, addr uint32, key []byte) ([]byte, bool, error) {
	if addr < e.reg.Start+pageHdrLen || addr+recHdrLen > e.reg.End {
		return nil, false, nil
	}
	pageEnd := e.pageStart((addr-e.reg.Start)/e.pageSize() + 1)

	hdr := e.scratch[:recHdrLen]
	if err := e.drv.Read(ctx, addr, hdr); err != nil {
		return nil, false, kvmap.WrapStorage("record header read failed", err)
	}
	if isErased(hdr) {
		return nil, false, nil
	}

	valueLen := int(binary.LittleEndian.Uint16(hdr[4:6]))
	size := e.recordSize(valueLen)
	if int(size) > len(e.scratch) || addr+size > pageEnd {
		return nil, false, nil
	}

	rec := e.scratch[:size]
	if err := e.drv.Read(ctx, addr, rec); err != nil {
		return nil, false, kvmap.WrapStorage("record read failed", err)
	}
	want := binary.LittleEndian.Uint32(rec[0:4])
	got := crc32.ChecksumIEEE(rec[4 : recHdrLen+e.keyWidth+valueLen])
	if want != got {
		return nil, false, kvmap.NewError(kvmap.ErrCorrupted,
			fmt.Sprintf("record at 0x%08x fails checksum", addr))
	}
	if !bytes.Equal(rec[recHdrLen:recHdrLen+e.keyWidth], key) {
		return nil, false, nil
	}

	value := append([]byte(nil), rec[recHdrLen+e.keyWidth:recHdrLen+e.keyWidth+valueLen]...)
	return value, true, nil
}

// --------------------------------------------------------------------------
// Scanning
// --------------------------------------------------------------------------

// checkKey validates the fixed key width.
func (e *engineImpl) checkKey(key []byte) error {
	if len(key) != e.keyWidth {
		return kvmap.NewError(kvmap.ErrItemTooBig,
			fmt.Sprintf("key of %d bytes does not match fixed width %d", len(key), e.keyWidth))
	}
	return nil
}

// ensureLoaded rebuilds the cursor state from flash on the first operation
// after construction.
func (e *engineImpl) ensureLoaded(ctx context.Context) error {
	if e.loaded {
		return nil
	}

	lastUsed := int64(-1)
	for page := uint32(0); page < e.pageCount(); page++ {
		used, err := e.pageUsed(ctx, page)
		if err != nil {
			return err
		}
		if used {
			if int64(page) != lastUsed+1 {
				// a used page after a fresh one means an interrupted
				// reclamation, the region cannot be trusted
				return kvmap.NewError(kvmap.ErrCorrupted,
					fmt.Sprintf("page %d in use after fresh page", page))
			}
			lastUsed = int64(page)
		}
	}

	if lastUsed < 0 {
		e.cursorPage = 0
		e.cursorOff = pageHdrLen
		e.pageInUse = false
		e.loaded = true
		return nil
	}

	// find the end of data in the last used page
	end := uint32(pageHdrLen)
	err := e.scanPage(ctx, uint32(lastUsed), func(addr uint32, size uint32, _, _ []byte) {
		end = addr - e.pageStart(uint32(lastUsed)) + size
	})
	if err != nil {
		return err
	}

	e.cursorPage = uint32(lastUsed)
	e.cursorOff = end
	e.pageInUse = true
	e.loaded = true
	return nil
}

// pageUsed reads a page header and classifies the page. A header that is
// neither the magic word nor fully erased is corruption.
func (e *engineImpl) pageUsed(ctx context.Context, page uint32) (bool, error) {
	var hdr [pageHdrLen]byte
	if err := e.drv.Read(ctx, e.pageStart(page), hdr[:]); err != nil {
		return false, kvmap.WrapStorage("page header read failed", err)
	}
	v := binary.LittleEndian.Uint32(hdr[:])
	switch v {
	case pageMagic:
		return true, nil
	case 0xFFFFFFFF:
		return false, nil
	default:
		return false, kvmap.NewError(kvmap.ErrCorrupted,
			fmt.Sprintf("page %d header 0x%08x is neither magic nor erased", page, v))
	}
}

// scanPage walks all records of a used page in write order. The callback
// receives the absolute record address, the aligned record size and the key
// and value slices (valid only for the duration of the call).
func (e *engineImpl) scanPage(ctx context.Context, page uint32, fn func(addr, size uint32, key, value []byte)) error {
	pageAddr := e.pageStart(page)
	off := uint32(pageHdrLen)

	for off+recHdrLen <= e.pageSize() {
		addr := pageAddr + off
		hdr := e.scratch[:recHdrLen]
		if err := e.drv.Read(ctx, addr, hdr); err != nil {
			return kvmap.WrapStorage("record header read failed", err)
		}
		if isErased(hdr) {
			return nil // end of data in this page
		}

		valueLen := int(binary.LittleEndian.Uint16(hdr[4:6]))
		size := e.recordSize(valueLen)
		if int(size) > len(e.scratch) || off+size > e.pageSize() {
			return kvmap.NewError(kvmap.ErrCorrupted,
				fmt.Sprintf("record at 0x%08x declares impossible length %d", addr, valueLen))
		}

		rec := e.scratch[:size]
		if err := e.drv.Read(ctx, addr, rec); err != nil {
			return kvmap.WrapStorage("record read failed", err)
		}
		want := binary.LittleEndian.Uint32(rec[0:4])
		got := crc32.ChecksumIEEE(rec[4 : recHdrLen+e.keyWidth+valueLen])
		if want != got {
			return kvmap.NewError(kvmap.ErrCorrupted,
				fmt.Sprintf("record at 0x%08x fails checksum", addr))
		}

		fn(addr, size, rec[recHdrLen:recHdrLen+e.keyWidth], rec[recHdrLen+e.keyWidth:recHdrLen+e.keyWidth+valueLen])
		off += size
	}
	return nil
}

// scanRegion walks every record of every used page in write order.
func (e *engineImpl) scanRegion(ctx context.Context, fn func(addr uint32, key, value []byte)) error {
	for page := uint32(0); page < e.pageCount(); page++ {
		used, err := e.pageUsed(ctx, page)
		if err != nil {
			return err
		}
		if !used {
			return nil // pages are used strictly in order
		}
		if err := e.scanPage(ctx, page, func(addr, _ uint32, key, value []byte) {
			fn(addr, key, value)
		}); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Reclamation
// --------------------------------------------------------------------------

// compact collects the newest value of every key, erases the region and
// rewrites the surviving entries from the front. Runs only when the region
// is full; with deletion unsupported this strictly reclaims superseded
// duplicates.
func (e *engineImpl) compact(ctx context.Context) error {
	var (
		order [][]byte
		live  = make(map[string][]byte)
	)
	err := e.scanRegion(ctx, func(_ uint32, key, value []byte) {
		if _, seen := live[string(key)]; !seen {
			order = append(order, append([]byte(nil), key...))
		}
		live[string(key)] = append([]byte(nil), value...)
	})
	if err != nil {
		return err
	}

	if err := e.EraseRange(ctx); err != nil {
		return err
	}

	for _, key := range order {
		value := live[string(key)]
		need := e.recordSize(len(value))
		if e.cursorOff+need > e.pageSize() {
			if e.cursorPage+1 >= e.pageCount() {
				return kvmap.NewError(kvmap.ErrFullStorage, "live entries exceed region capacity")
			}
			e.cursorPage++
			e.cursorOff = pageHdrLen
			e.pageInUse = false
		}
		if err := e.appendRecord(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// isErased reports whether every byte reads back in the erased state.
func isErased(b []byte) bool {
	for _, v := range b {
		if v != 0xFF {
			return false
		}
	}
	return true
}
