package runtime

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfgpkg "github.com/rzbill/chronicle/internal/config"
	"github.com/rzbill/chronicle/internal/ledger"
	"github.com/rzbill/chronicle/internal/pruner"
	pebblestore "github.com/rzbill/chronicle/internal/storage/pebble"
	"github.com/rzbill/chronicle/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	Logger        log.Logger
	// Metrics receives the pruner progress gauge. Nil disables metrics.
	Metrics prometheus.Registerer
}

// Runtime wires storage, the ledger stores, and the pruning driver for a
// single-node instance.
type Runtime struct {
	db        *pebblestore.DB
	events    *ledger.EventStore
	writeSets *ledger.WriteSetStore
	manager   *pruner.Manager
	config    cfgpkg.Config
	latest    atomic.Uint64
}

// Open initializes the underlying storage, recovers pruner state, and starts
// the pruning driver.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
	})
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	var gauge pruner.ProgressGauge = pruner.NoopGauge{}
	if opts.Metrics != nil {
		gauge = pruner.NewPrometheusGauge(opts.Metrics)
	}

	events := ledger.NewEventStore(db)
	writeSets := ledger.NewWriteSetStore(db)

	eventPruner, err := pruner.NewEventStorePruner(db, events, gauge)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	writeSetPruner, err := pruner.NewWriteSetPruner(db, writeSets, gauge)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	pcfg := opts.Config.Pruner
	manager := pruner.NewManager(pruner.Config{
		Enable:       pcfg.Enable,
		PruneWindow:  pcfg.PruneWindow,
		BatchSize:    pcfg.BatchSize,
		PollInterval: time.Duration(pcfg.PollIntervalMs) * time.Millisecond,
	}, []pruner.Pruner{eventPruner, writeSetPruner}, logger)

	rt := &Runtime{
		db:        db,
		events:    events,
		writeSets: writeSets,
		manager:   manager,
		config:    opts.Config,
	}
	manager.Start()
	return rt, nil
}

// Close stops the pruning driver and closes underlying resources.
func (r *Runtime) Close() error {
	if r.manager != nil {
		r.manager.Stop()
	}
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple storage health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Commit writes one ledger version: its events and its write set, in a single
// atomic batch. The pruning driver is informed of the new latest version.
func (r *Runtime) Commit(ctx context.Context, version uint64, events []ledger.Event, ws ledger.WriteSet) error {
	b := r.db.NewBatch()
	defer b.Close()

	if err := r.events.PutEvents(b, version, events); err != nil {
		return err
	}
	if err := r.writeSets.PutWriteSet(b, version, ws); err != nil {
		return err
	}
	if err := r.db.CommitBatch(ctx, b); err != nil {
		return err
	}

	for {
		cur := r.latest.Load()
		if version <= cur && cur != 0 {
			break
		}
		if r.latest.CompareAndSwap(cur, version) {
			break
		}
	}
	r.manager.SetLatestVersion(r.latest.Load())
	return nil
}

// LatestVersion returns the newest committed version observed by this runtime.
func (r *Runtime) LatestVersion() uint64 { return r.latest.Load() }

// EventStore exposes the event schemas.
func (r *Runtime) EventStore() *ledger.EventStore { return r.events }

// WriteSetStore exposes the write-set log.
func (r *Runtime) WriteSetStore() *ledger.WriteSetStore { return r.writeSets }

// PrunerStatus reports the progress of every registered pruner.
func (r *Runtime) PrunerStatus() []pruner.Status { return r.manager.Status() }

// Pruners exposes the driver for administrative wakes.
func (r *Runtime) Pruners() *pruner.Manager { return r.manager }

// CompactPruned asks the storage engine to compact the key ranges already
// released by the pruners, reclaiming disk space for deleted versions.
func (r *Runtime) CompactPruned() error {
	for _, st := range r.manager.Status() {
		if st.LeastReadableVersion == 0 {
			continue
		}
		switch st.Name {
		case pruner.EventStorePrunerName:
			for _, bounds := range [][2][]byte{
				twoBounds(ledger.EventLogRange(0, st.LeastReadableVersion)),
				twoBounds(ledger.AccumulatorRange(0, st.LeastReadableVersion)),
				twoBounds(ledger.EventByVersionRange(0, st.LeastReadableVersion)),
			} {
				if err := r.db.CompactRange(bounds[0], bounds[1]); err != nil {
					return err
				}
			}
		case pruner.WriteSetPrunerName:
			lo, hi := ledger.WriteSetRange(0, st.LeastReadableVersion)
			if err := r.db.CompactRange(lo, hi); err != nil {
				return err
			}
		}
	}
	return nil
}

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

func twoBounds(lo, hi []byte) [2][]byte { return [2][]byte{lo, hi} }
