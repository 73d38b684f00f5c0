// Package ledger defines the versioned schemas of the chronicle store and the
// typed accessors over them.
//
// Every record is tagged with a monotonically increasing uint64 version. The
// event store spans four schemas that must stay mutually consistent (primary
// log, event-by-key index, accumulator leaves, event-by-version index); the
// write-set store is a single version-keyed log. Mutations are enqueued into
// caller-owned Pebble batches, so a write touching several schemas commits
// atomically.
package ledger
