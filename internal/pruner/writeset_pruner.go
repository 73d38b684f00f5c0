package pruner

import (
	"context"

	"github.com/rzbill/chronicle/internal/ledger"
)

// WriteSetPrunerName labels the write-set pruner in logs and metrics.
const WriteSetPrunerName = "write_set"

// WriteSetPruner prunes the write-set log, a single-index schema with no
// secondary structures to reconcile. It is the minimal instantiation of the
// pruner contract.
type WriteSetPruner struct {
	progress
	db        BatchStore
	writeSets *ledger.WriteSetStore
}

// NewWriteSetPruner builds the pruner and recovers its least readable version
// by seeking the first entry of the write-set log.
func NewWriteSetPruner(db BatchStore, writeSets *ledger.WriteSetStore, gauge ProgressGauge) (*WriteSetPruner, error) {
	p := &WriteSetPruner{
		progress:  newProgress(WriteSetPrunerName, gauge),
		db:        db,
		writeSets: writeSets,
	}
	version, ok, err := p.writeSets.FirstWriteSetVersion()
	if err != nil {
		return nil, err
	}
	if !ok {
		version = 0
	}
	p.initProgress(version)
	return p, nil
}

// Prune deletes write sets for the half-open version range
// [leastReadable, min(leastReadable+maxVersions, target)) in one atomic batch.
func (p *WriteSetPruner) Prune(maxVersions uint64) (uint64, error) {
	start := p.LeastReadableVersion()
	end := p.currentBatchTarget(maxVersions)

	b := p.db.NewBatch()
	defer b.Close()

	if err := p.writeSets.PruneWriteSets(b, start, end); err != nil {
		return 0, err
	}
	if err := p.db.CommitBatch(context.Background(), b); err != nil {
		return 0, err
	}

	p.recordProgress(end)
	return end, nil
}
