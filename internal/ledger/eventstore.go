package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/rzbill/chronicle/internal/storage/pebble"
)

// ErrCorruptRecord is returned when a stored value fails checksum or layout
// validation.
var ErrCorruptRecord = errors.New("ledger: corrupt record")

// ErrNotFound is returned when a requested entry does not exist.
var ErrNotFound = errors.New("ledger: not found")

// SequenceRange is the inclusive [Min, Max] sequence-number span of one event
// key's entries within a pruned version range.
type SequenceRange struct {
	Min uint64
	Max uint64
}

// EventStore reads and mutates the four event schemas: the primary log, the
// event-by-key index, the accumulator leaves, and the event-by-version index.
// All writes are enqueued into caller-owned batches so that heterogeneous
// mutations commit atomically.
type EventStore struct {
	db *pebblestore.DB
}

// NewEventStore wraps the shared database.
func NewEventStore(db *pebblestore.DB) *EventStore {
	return &EventStore{db: db}
}

// PutEvents enqueues all four schema entries for the events of one version.
// Event indices within the version follow slice order.
func (s *EventStore) PutEvents(b *pebble.Batch, version uint64, events []Event) error {
	for i, ev := range events {
		idx := uint32(i)
		enc := EncodeEvent(ev)
		if err := b.Set(KeyEventLog(version, idx), enc, nil); err != nil {
			return err
		}
		if err := b.Set(KeyEventByKey(ev.Key, ev.SequenceNumber), encodeEventPointer(version, idx), nil); err != nil {
			return err
		}
		if err := b.Set(KeyEventAccumulator(version, uint64(i)), LeafHash(enc), nil); err != nil {
			return err
		}
		var seq [8]byte
		binary.BigEndian.PutUint64(seq[:], ev.SequenceNumber)
		if err := b.Set(KeyEventByVersion(version, ev.Key), seq[:], nil); err != nil {
			return err
		}
	}
	return nil
}

// EventsByVersion returns the events recorded at one version, in index order.
func (s *EventStore) EventsByVersion(version uint64) ([]Event, error) {
	return s.EventsInRange(version, version+1)
}

// EventsInRange scans the primary log over versions [start, end) and returns
// the per-version event lists flattened into one version-ordered sequence.
func (s *EventStore) EventsInRange(start, end uint64) ([]Event, error) {
	if start >= end {
		return nil, nil
	}
	lo, hi := EventLogRange(start, end)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var events []Event
	for ok := iter.First(); ok; ok = iter.Next() {
		ev, okDec := DecodeEvent(iter.Value())
		if !okDec {
			return nil, fmt.Errorf("%w: event at %x", ErrCorruptRecord, iter.Key())
		}
		events = append(events, ev)
	}
	return events, iter.Error()
}

// EventByKey resolves one (key, sequence number) index entry to its event.
func (s *EventStore) EventByKey(key EventKey, seq uint64) (Event, error) {
	ptr, err := s.db.Get(KeyEventByKey(key, seq))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	version, index, ok := decodeEventPointer(ptr)
	if !ok {
		return Event{}, ErrCorruptRecord
	}
	val, err := s.db.Get(KeyEventLog(version, index))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	ev, okDec := DecodeEvent(val)
	if !okDec {
		return Event{}, ErrCorruptRecord
	}
	return ev, nil
}

// FirstEventVersion seeks the lowest-ordered entry of the primary log.
// Returns ok=false on an empty log.
func (s *EventStore) FirstEventVersion() (version uint64, ok bool, err error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: eventLogPrefix,
		UpperBound: prefixSuccessor(eventLogPrefix),
	})
	if err != nil {
		return 0, false, err
	}
	defer iter.Close()

	if !iter.First() {
		return 0, false, iter.Error()
	}
	version, _, okKey := ParseEventLogKey(iter.Key())
	if !okKey {
		return 0, false, fmt.Errorf("%w: event log key %x", ErrCorruptRecord, iter.Key())
	}
	return version, true, nil
}

// PruneEventsByVersion enqueues deletion of primary log entries over versions
// [start, end) whose event key is in keys.
func (s *EventStore) PruneEventsByVersion(b *pebble.Batch, keys map[EventKey]struct{}, start, end uint64) error {
	if start >= end {
		return nil
	}
	lo, hi := EventLogRange(start, end)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return err
	}
	defer iter.Close()

	for ok := iter.First(); ok; ok = iter.Next() {
		ev, okDec := DecodeEvent(iter.Value())
		if !okDec {
			return fmt.Errorf("%w: event at %x", ErrCorruptRecord, iter.Key())
		}
		if _, hit := keys[ev.Key]; !hit {
			continue
		}
		if err := b.Delete(iter.Key(), nil); err != nil {
			return err
		}
	}
	return iter.Error()
}

// PruneEventsByKey enqueues deletion of each key's event-by-key index entries
// covering its inclusive sequence range.
func (s *EventStore) PruneEventsByKey(b *pebble.Batch, ranges map[EventKey]SequenceRange) error {
	for key, r := range ranges {
		lo, hi := EventByKeyRange(key, r.Min, r.Max)
		if err := b.DeleteRange(lo, hi, nil); err != nil {
			return err
		}
	}
	return nil
}

// PruneEventAccumulator enqueues deletion of all accumulator leaves over
// versions [start, end).
func (s *EventStore) PruneEventAccumulator(b *pebble.Batch, start, end uint64) error {
	if start >= end {
		return nil
	}
	lo, hi := AccumulatorRange(start, end)
	return b.DeleteRange(lo, hi, nil)
}

// PruneEventIndex enqueues deletion of all event-by-version index entries over
// versions [start, end).
func (s *EventStore) PruneEventIndex(b *pebble.Batch, start, end uint64) error {
	if start >= end {
		return nil
	}
	lo, hi := EventByVersionRange(start, end)
	return b.DeleteRange(lo, hi, nil)
}
