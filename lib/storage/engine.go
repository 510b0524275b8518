package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/ValentinKolb/fKV/lib/flash/bridge"
	"github.com/ValentinKolb/fKV/lib/flash/region"
	"github.com/ValentinKolb/fKV/lib/kvmap"
	"github.com/ValentinKolb/fKV/lib/kvmap/cache"
	"github.com/ValentinKolb/fKV/lib/kvmap/seqmap"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("storage")

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// Constants for storage behavior and layout. The scratch buffer caps the
// total record size (key + value + engine framing); the overhead estimate
// reserves headroom for the framing when sizing inserts.
const (
	MarkerKey   = "__INIT_MARKER" // reserved key of the validity marker
	markerValue = 0xAA            // sentinel byte proving correct initialization

	DataBufferSize   = 256 // scratch buffer size shared with the map engine
	KeyWidth         = 64  // fixed key width after normalization
	CacheKeys        = 16  // capacity of the key-pointer cache
	PageCount        = 8   // pages the reserved flash region must span
	overheadEstimate = 64  // engine framing headroom for size estimates
)

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

var (
	metricGets      = metrics.GetOrCreateCounter(`fkv_storage_ops_total{op="get"}`)
	metricInserts   = metrics.GetOrCreateCounter(`fkv_storage_ops_total{op="insert"}`)
	metricEraseAlls = metrics.GetOrCreateCounter(`fkv_storage_ops_total{op="erase_all"}`)
	metricErrors    = metrics.GetOrCreateCounter(`fkv_storage_errors_total`)
)

// --------------------------------------------------------------------------
// Key Normalization
// --------------------------------------------------------------------------

// padKey maps a textual key to the fixed-width form the map engine and the
// key-pointer cache address by: UTF-8 bytes right-padded with zeros. Keys
// longer than the fixed width cannot be stored at all, not merely uncached.
func padKey(key string) ([]byte, bool) {
	if len(key) > KeyWidth {
		return nil, false
	}
	padded := make([]byte, KeyWidth)
	copy(padded, key)
	return padded, true
}

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// Engine owns the flash handle, the lookup cache and the storage region; it
// is the only component allowed to touch the flash device.
//
// Thread-safety: all methods are safe for concurrent use. A mutex serializes
// every flash operation; concurrent callers observe a total order equal to
// lock-acquisition order. Because the flash bridge runs operations to
// completion, every method is blocking.
type Engine struct {
	mu  sync.Mutex
	eng kvmap.Engine
	reg region.Region
}

// NewEngine resolves the storage region, wires the blocking driver through
// the bridge and runs the validity protocol: if the marker key holds the
// expected sentinel the region is accepted as-is; on absence, mismatch or
// any read failure (including corruption) the whole region is erased and the
// marker rewritten. A region.ConfigError is fatal for the caller (bad
// placement is a build fault, not a runtime one); a failed recovery is
// surfaced as the storage error of the failing step.
func NewEngine(dev flash.BlockingDriver, pl region.Placement) (*Engine, error) {
	reg, err := region.Resolve(pl, dev.Geometry())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		eng: seqmap.New(bridge.New(dev), reg, cache.New(CacheKeys), seqmap.Options{
			KeyWidth:    KeyWidth,
			ScratchSize: DataBufferSize,
		}),
		reg: reg,
	}

	var marker codec.U8
	loaded, err := e.Get(MarkerKey, &marker)
	switch {
	case err == nil && loaded && marker == markerValue:
		Logger.Infof("storage region %s valid", reg)
		return e, nil
	case err != nil:
		Logger.Warningf("storage region %s unreadable (%v), reformatting", reg, err)
	case loaded:
		Logger.Warningf("storage region %s carries wrong marker 0x%02x, reformatting", reg, uint8(marker))
	default:
		Logger.Infof("storage region %s unformatted, formatting", reg)
	}

	if err := e.EraseAll(); err != nil {
		return nil, err
	}
	return e, nil
}

// --------------------------------------------------------------------------
// Core Operations
// --------------------------------------------------------------------------

// Insert persists a key-value pair. The key is normalized first (failing
// fast with KindKeyTooLong), then the value's declared maximum size is
// checked against the scratch buffer so an oversized record is rejected
// before any flash mutation.
func (e *Engine) Insert(key string, value codec.Value) error {
	metricInserts.Inc()

	padded, ok := padKey(key)
	if !ok {
		metricErrors.Inc()
		return NewError(KindKeyTooLong, fmt.Sprintf("key of %d bytes exceeds fixed width %d", len(key), KeyWidth))
	}

	maxSize := value.EncodedMaxSize()
	if maxSize > DataBufferSize {
		metricErrors.Inc()
		return NewError(KindRecordTooLarge,
			fmt.Sprintf("value of up to %d bytes can never fit the %d byte buffer", maxSize, DataBufferSize))
	}
	if KeyWidth+maxSize+overheadEstimate > DataBufferSize {
		metricErrors.Inc()
		return NewError(KindBufferTooSmall,
			fmt.Sprintf("estimated record size %d exceeds the %d byte buffer", KeyWidth+maxSize+overheadEstimate, DataBufferSize))
	}

	buf := make([]byte, maxSize)
	n, err := value.MarshalRecord(buf)
	if err != nil {
		metricErrors.Inc()
		return &Error{Kind: KindBufferTooSmall, Msg: "value encoding failed", Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.eng.Store(context.Background(), padded, buf[:n]); err != nil {
		metricErrors.Inc()
		return fromMapError(err)
	}
	return nil
}

// Get loads the newest value for key into value. The boolean return reports
// whether the key was found; a decode failure after a successful fetch is
// KindCorrupted, which is distinct from not-found.
func (e *Engine) Get(key string, value codec.Value) (bool, error) {
	metricGets.Inc()

	padded, ok := padKey(key)
	if !ok {
		metricErrors.Inc()
		return false, NewError(KindKeyTooLong, fmt.Sprintf("key of %d bytes exceeds fixed width %d", len(key), KeyWidth))
	}

	e.mu.Lock()
	raw, loaded, err := e.eng.Fetch(context.Background(), padded)
	e.mu.Unlock()

	if err != nil {
		metricErrors.Inc()
		return false, fromMapError(err)
	}
	if !loaded {
		return false, nil
	}
	if err := value.UnmarshalRecord(raw); err != nil {
		metricErrors.Inc()
		return false, &Error{Kind: KindCorrupted, Msg: fmt.Sprintf("value for %q failed to decode", key), Err: err}
	}
	return true, nil
}

// EraseAll erases the entire storage region, resets the lookup cache and
// immediately rewrites the validity marker. If the marker rewrite fails
// after a successful erase the region is left erased-but-unmarked and the
// distinct KindUnmarked is returned: reads must not be trusted until another
// full erase pass succeeds.
func (e *Engine) EraseAll() error {
	metricEraseAlls.Inc()

	e.mu.Lock()
	err := e.eng.EraseRange(context.Background())
	e.mu.Unlock()
	if err != nil {
		metricErrors.Inc()
		return fromMapError(err)
	}

	marker := codec.U8(markerValue)
	if err := e.Insert(MarkerKey, &marker); err != nil {
		metricErrors.Inc()
		return &Error{Kind: KindUnmarked, Msg: "region erased but marker rewrite failed", Err: err}
	}
	return nil
}

// Remove is an intentionally unsupported operation: on the page-log layout,
// purging a single key costs a full compaction cycle, out of proportion on
// the intended device class. The call performs no flash mutation.
func (e *Engine) Remove(key string) error {
	Logger.Warningf("remove of %q ignored: single-key removal is unsupported on this layout, "+
		"superseded entries are reclaimed during compaction", key)
	return nil
}

// Region returns the resolved storage region (diagnostics only).
func (e *Engine) Region() region.Region {
	return e.reg
}
