// Package runtime assembles a chronicle node: the Pebble store, the ledger
// schemas, and the pruning driver, behind one lifecycle (Open, Commit, Close).
package runtime
