package pruner

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
)

// Pruner advances a per-domain low-water mark by deleting historical data in
// bounded, atomically committed steps. One Prune call may be in flight per
// instance; the accessors are safe to call concurrently with it.
type Pruner interface {
	// Name is the stable identifier used for logging and metrics labels.
	Name() string
	// Prune performs one bounded pruning step covering at most maxVersions
	// versions, never past the target version. It returns the new least
	// readable version. A caught-up pruner commits an empty batch and returns
	// the unchanged value.
	Prune(maxVersions uint64) (uint64, error)
	// LeastReadableVersion is the published low-water mark: data below it is
	// no longer guaranteed readable.
	LeastReadableVersion() uint64
	// TargetVersion is the externally supplied pruning goal.
	TargetVersion() uint64
	// SetTargetVersion raises the pruning goal. Set only by the driver.
	SetTargetVersion(version uint64)
}

// BatchStore is the slice of the storage layer a pruner needs: batch creation
// and atomic commit. *pebblestore.DB satisfies it.
type BatchStore interface {
	NewBatch() *pebble.Batch
	CommitBatch(ctx context.Context, b *pebble.Batch) error
}

// progress holds the shared pruner state: the two atomically accessed version
// fields and the gauge publishing the low-water mark. Embedded by every
// pruner variant.
type progress struct {
	name          string
	gauge         ProgressGauge
	leastReadable atomic.Uint64
	target        atomic.Uint64
}

func newProgress(name string, gauge ProgressGauge) progress {
	if gauge == nil {
		gauge = NoopGauge{}
	}
	return progress{name: name, gauge: gauge}
}

func (p *progress) Name() string { return p.name }

func (p *progress) LeastReadableVersion() uint64 { return p.leastReadable.Load() }

func (p *progress) TargetVersion() uint64 { return p.target.Load() }

func (p *progress) SetTargetVersion(version uint64) { p.target.Store(version) }

// initProgress seeds both fields after the recovery scan. Target starts equal
// to the recovered mark so the invariant leastReadable <= target holds before
// the driver sets a real goal.
func (p *progress) initProgress(version uint64) {
	p.leastReadable.Store(version)
	p.target.Store(version)
	p.gauge.Set(p.name, version)
}

// currentBatchTarget computes min(leastReadable+maxVersions, target),
// saturating the addition so a huge maxVersions cannot wrap.
func (p *progress) currentBatchTarget(maxVersions uint64) uint64 {
	least := p.leastReadable.Load()
	next := least + maxVersions
	if next < least {
		next = ^uint64(0)
	}
	if target := p.target.Load(); next > target {
		next = target
	}
	if next < least {
		next = least
	}
	return next
}

// recordProgress publishes a new low-water mark. Called only after the batch
// holding the corresponding deletions committed successfully.
func (p *progress) recordProgress(version uint64) {
	p.leastReadable.Store(version)
	p.gauge.Set(p.name, version)
}
