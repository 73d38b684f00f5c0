// Package pruner implements incremental, crash-safe pruning of obsolete
// historical data in the chronicle ledger.
//
// Each pruner owns one data domain and advances a published low-water mark
// (the least readable version) in bounded steps. One step deletes the
// half-open version range up to min(leastReadable+maxVersions, target) across
// all of the domain's schemas in a single atomic batch, and only then
// publishes the new mark. A failed step publishes nothing, so the same range
// is recomputed and retried from unchanged state. After a restart the mark is
// recovered by seeking the first surviving entry of the domain's primary
// schema.
//
// The Manager is the driver: it derives targets from the latest committed
// version minus a retention window and steps every registered pruner from a
// single background goroutine.
package pruner
