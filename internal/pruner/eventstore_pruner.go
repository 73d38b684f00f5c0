package pruner

import (
	"context"

	"github.com/rzbill/chronicle/internal/ledger"
)

// EventStorePrunerName labels the event store pruner in logs and metrics.
const EventStorePrunerName = "event_store"

// EventStorePruner prunes the primary event log together with the three
// dependent structures that must stay consistent with it: the event-by-key
// index, the accumulator leaves, and the event-by-version index.
type EventStorePruner struct {
	progress
	db     BatchStore
	events *ledger.EventStore
}

// NewEventStorePruner builds the pruner and recovers its least readable
// version by seeking the first entry of the primary event log.
func NewEventStorePruner(db BatchStore, events *ledger.EventStore, gauge ProgressGauge) (*EventStorePruner, error) {
	p := &EventStorePruner{
		progress: newProgress(EventStorePrunerName, gauge),
		db:       db,
		events:   events,
	}
	least, err := p.initializeLeastReadableVersion()
	if err != nil {
		return nil, err
	}
	p.initProgress(least)
	return p, nil
}

// Prune deletes event data for the half-open version range
// [leastReadable, min(leastReadable+maxVersions, target)) in one atomic batch.
func (p *EventStorePruner) Prune(maxVersions uint64) (uint64, error) {
	start := p.LeastReadableVersion()
	end := p.currentBatchTarget(maxVersions)

	b := p.db.NewBatch()
	defer b.Close()

	candidates, err := p.events.EventsInRange(start, end)
	if err != nil {
		return 0, err
	}

	keys := make(map[ledger.EventKey]struct{}, len(candidates))
	for _, ev := range candidates {
		keys[ev.Key] = struct{}{}
	}
	if err := p.events.PruneEventsByVersion(b, keys, start, end); err != nil {
		return 0, err
	}

	// Per-key sequence spans over the batch. True running min/max: a key's
	// events are not assumed to arrive in sequence order within the range.
	ranges := make(map[ledger.EventKey]ledger.SequenceRange, len(keys))
	for _, ev := range candidates {
		r, seen := ranges[ev.Key]
		if !seen {
			r = ledger.SequenceRange{Min: ev.SequenceNumber, Max: ev.SequenceNumber}
		} else {
			if ev.SequenceNumber < r.Min {
				r.Min = ev.SequenceNumber
			}
			if ev.SequenceNumber > r.Max {
				r.Max = ev.SequenceNumber
			}
		}
		ranges[ev.Key] = r
	}
	if err := p.events.PruneEventsByKey(b, ranges); err != nil {
		return 0, err
	}

	if err := p.events.PruneEventAccumulator(b, start, end); err != nil {
		return 0, err
	}
	if err := p.events.PruneEventIndex(b, start, end); err != nil {
		return 0, err
	}

	if err := p.db.CommitBatch(context.Background(), b); err != nil {
		return 0, err
	}

	p.recordProgress(end)
	return end, nil
}

// initializeLeastReadableVersion recovers the low-water mark after a restart:
// the version of the lowest-keyed surviving event, or 0 for an empty log.
func (p *EventStorePruner) initializeLeastReadableVersion() (uint64, error) {
	version, ok, err := p.events.FirstEventVersion()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return version, nil
}
