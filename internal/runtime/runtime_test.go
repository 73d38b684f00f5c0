package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/rzbill/chronicle/internal/config"
	"github.com/rzbill/chronicle/internal/ledger"
)

func newTestRuntime(t *testing.T, window, batch uint64) *Runtime {
	t.Helper()

	cfg := cfgpkg.Default()
	cfg.Pruner.Enable = false // tests drive pruning explicitly
	cfg.Pruner.PruneWindow = window
	cfg.Pruner.BatchSize = batch

	rt, err := Open(Options{
		DataDir: t.TempDir(),
		Config:  cfg,
	})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() {
		if err := rt.Close(); err != nil {
			t.Fatalf("close runtime: %v", err)
		}
	})
	return rt
}

func testEvent(key byte, seq uint64) ledger.Event {
	var k ledger.EventKey
	k[0] = key
	return ledger.Event{Key: k, SequenceNumber: seq, Data: []byte{key}}
}

func TestCommitAndRead(t *testing.T) {
	rt := newTestRuntime(t, 100, 10)
	ctx := context.Background()

	ws := ledger.WriteSet{{Key: []byte("a"), Value: []byte("1")}}
	if err := rt.Commit(ctx, 3, []ledger.Event{testEvent(0xAA, 0)}, ws); err != nil {
		t.Fatalf("commit: %v", err)
	}

	events, err := rt.EventStore().EventsByVersion(3)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 || events[0].Data[0] != 0xAA {
		t.Fatalf("unexpected events: %+v", events)
	}

	got, err := rt.WriteSetStore().WriteSet(3)
	if err != nil {
		t.Fatalf("write set: %v", err)
	}
	if len(got) != 1 || string(got[0].Key) != "a" {
		t.Fatalf("unexpected write set: %+v", got)
	}

	if rt.LatestVersion() != 3 {
		t.Fatalf("latest = %d, want 3", rt.LatestVersion())
	}
}

func TestCommitDrivesPruning(t *testing.T) {
	rt := newTestRuntime(t, 5, 100)
	ctx := context.Background()

	for v := uint64(0); v < 20; v++ {
		ws := ledger.WriteSet{{Key: []byte{byte(v)}, Value: []byte{byte(v)}}}
		if err := rt.Commit(ctx, v, []ledger.Event{testEvent(0x01, v)}, ws); err != nil {
			t.Fatalf("commit v%d: %v", v, err)
		}
	}

	// latest=19, window=5: pruners should release [0, 14) once driven.
	rt.Pruners().PruneOnce()

	for _, st := range rt.PrunerStatus() {
		if st.TargetVersion != 14 {
			t.Fatalf("%s target = %d, want 14", st.Name, st.TargetVersion)
		}
		if st.LeastReadableVersion != 14 {
			t.Fatalf("%s least readable = %d, want 14", st.Name, st.LeastReadableVersion)
		}
	}

	if _, err := rt.WriteSetStore().WriteSet(13); err != ledger.ErrNotFound {
		t.Fatalf("pruned write set err = %v, want ErrNotFound", err)
	}
	if _, err := rt.WriteSetStore().WriteSet(14); err != nil {
		t.Fatalf("surviving write set: %v", err)
	}

	events, err := rt.EventStore().EventsInRange(0, 14)
	if err != nil {
		t.Fatalf("events in pruned range: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events below 14, got %d", len(events))
	}
}

func TestCompactPruned(t *testing.T) {
	rt := newTestRuntime(t, 0, 100)
	ctx := context.Background()

	for v := uint64(0); v < 8; v++ {
		if err := rt.Commit(ctx, v, []ledger.Event{testEvent(0x02, v)}, nil); err != nil {
			t.Fatalf("commit v%d: %v", v, err)
		}
	}
	rt.Pruners().PruneOnce()

	if err := rt.CompactPruned(); err != nil {
		t.Fatalf("compact: %v", err)
	}
}

func TestCheckHealth(t *testing.T) {
	rt := newTestRuntime(t, 100, 10)
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestLatestVersionNeverRegresses(t *testing.T) {
	rt := newTestRuntime(t, 100, 10)
	ctx := context.Background()

	if err := rt.Commit(ctx, 9, []ledger.Event{testEvent(0x03, 0)}, nil); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := rt.Commit(ctx, 4, []ledger.Event{testEvent(0x03, 1)}, nil); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if rt.LatestVersion() != 9 {
		t.Fatalf("latest = %d, want 9", rt.LatestVersion())
	}
}
