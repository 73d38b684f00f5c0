package pebblestore

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testMetrics struct {
	read         int
	batchCommits int
	batchBytes   int
}

func (m *testMetrics) ObserveRead(d time.Duration, bytes int) { m.read += bytes }
func (m *testMetrics) ObserveBatchCommit(d time.Duration, bytes int) {
	m.batchCommits++
	m.batchBytes += bytes
}

func newTestDB(t *testing.T) (*DB, *testMetrics) {
	t.Helper()
	dir := t.TempDir()
	metrics := &testMetrics{}
	db, err := Open(Options{
		DataDir:       dir,
		Fsync:         FsyncModeInterval,
		FsyncInterval: 2 * time.Millisecond,
		Metrics:       metrics,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, metrics
}

func TestCRUD(t *testing.T) {
	db, metrics := newTestDB(t)

	key := []byte("k1")
	val := []byte("v1")
	if err := db.Set(key, val); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(val) {
		t.Fatalf("got %q want %q", got, val)
	}

	if metrics.read == 0 {
		t.Fatalf("expected read metrics to record bytes")
	}

	if err := db.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestBatchCommitMetrics(t *testing.T) {
	db, metrics := newTestDB(t)

	b := db.NewBatch()
	if err := b.Set([]byte("a"), []byte("1"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := b.Set([]byte("b"), []byte("2"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := db.CommitBatch(context.Background(), b); err != nil {
		t.Fatalf("commit: %v", err)
	}
	b.Close()

	if metrics.batchCommits != 1 {
		t.Fatalf("want 1 batch commit, got %d", metrics.batchCommits)
	}
	if metrics.batchBytes <= 0 {
		t.Fatalf("expected positive batch bytes")
	}
}

func TestBatchDeleteRange(t *testing.T) {
	db, _ := newTestDB(t)

	for _, k := range []string{"r/a", "r/b", "r/c", "s/a"} {
		if err := db.Set([]byte(k), []byte("v")); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	b := db.NewBatch()
	if err := b.DeleteRange([]byte("r/"), []byte("r0"), nil); err != nil {
		t.Fatalf("delete range: %v", err)
	}
	if err := db.CommitBatch(context.Background(), b); err != nil {
		t.Fatalf("commit: %v", err)
	}
	b.Close()

	if _, err := db.Get([]byte("r/b")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected r/b gone, got %v", err)
	}
	if _, err := db.Get([]byte("s/a")); err != nil {
		t.Fatalf("expected s/a to survive: %v", err)
	}
}
