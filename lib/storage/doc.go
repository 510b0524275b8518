// Package storage provides persistent, crash-resilient key-value storage on
// raw flash, wrapping a log-structured map engine behind a small typed API.
//
// The package focuses on:
//   - A validity-marker initialization protocol: a reserved key holding a
//     sentinel byte proves the region was formatted by this software; any
//     mismatch or read failure triggers a full erase and re-format, making
//     initialization idempotent across power cycles and self-healing on
//     first boot or corruption.
//   - Typed values: every storable type declares a worst-case encoded size
//     (codec.Value) which is checked against the fixed scratch buffer before
//     any flash mutation.
//   - A unified error taxonomy (Error/ErrKind) distinguishing corruption,
//     driver failures, capacity violations and key problems, consumed
//     unchanged by the command layer and the application logic.
//   - A process-wide, lock-guarded handle installed exactly once by Init;
//     accessor use before Init is a programming error and panics.
//
// Single-key removal is an intentionally unsupported operation: on the page
// log layout, selectively purging one key costs a full compaction cycle,
// which is out of proportion on the intended device class. Remove exists as
// a stub that performs no flash mutation and only logs the limitation.
//
// Every operation performs at most one logical flash operation under the
// engine lock; two tasks calling concurrently observe a total order equal to
// lock-acquisition order. The flash bridge runs each operation to
// completion, so every call here is blocking.
package storage
