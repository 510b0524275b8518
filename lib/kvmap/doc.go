// Package kvmap defines the contract for log-structured key-value map
// engines operating on a bounded flash region, together with the error
// taxonomy those engines report and the lookup-acceleration cache they
// consult.
//
// The package focuses on:
//   - A unified Engine interface for fetch/store/erase within a flash region
//   - A pluggable key-pointer Cache to avoid full-region scans
//   - A structured Error type with typed kinds the storage layer maps onto
//     its own taxonomy
//
// Key Components:
//
//   - Engine Interface: The core abstraction. An engine owns entry placement,
//     free-space reclamation and corruption detection within its address
//     range; callers see only fetch/store/erase and the error kinds. Keys are
//     fixed-width byte slices (the storage layer normalizes textual keys);
//     the newest stored entry for a key wins.
//
//   - Cache Interface: An in-memory index mapping keys to their last known
//     record address. Misses are never errors, and the cache is invalidated
//     wholesale on erase.
//
//   - Error System: Typed error kinds (ErrCorrupted, ErrFullStorage,
//     ErrItemTooBig, ErrBufferTooSmall, ErrStorage) so callers can make
//     decisions based on the specific failure rather than a generic error.
//
// Implementations:
//
//   - seqmap: an append-only page-log engine, available in the
//     "github.com/ValentinKolb/fKV/lib/kvmap/seqmap" package.
//   - cache: the xsync-backed key-pointer cache, available in the
//     "github.com/ValentinKolb/fKV/lib/kvmap/cache" package.
package kvmap
