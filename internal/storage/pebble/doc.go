// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// atomic batches, and minimal metrics hooks. It is the single storage engine
// shared by every ledger schema.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	// Atomic updates with batches
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(context.Background(), b)
//	b.Close()
package pebblestore
