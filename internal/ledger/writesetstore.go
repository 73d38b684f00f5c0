package ledger

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/rzbill/chronicle/internal/storage/pebble"
)

// WriteSetStore reads and mutates the write-set log, a single-index schema
// keyed directly by version.
type WriteSetStore struct {
	db *pebblestore.DB
}

// NewWriteSetStore wraps the shared database.
func NewWriteSetStore(db *pebblestore.DB) *WriteSetStore {
	return &WriteSetStore{db: db}
}

// PutWriteSet enqueues the write set recorded at one version.
func (s *WriteSetStore) PutWriteSet(b *pebble.Batch, version uint64, ws WriteSet) error {
	return b.Set(KeyWriteSet(version), EncodeWriteSet(ws), nil)
}

// WriteSet returns the write set recorded at the given version.
func (s *WriteSetStore) WriteSet(version uint64) (WriteSet, error) {
	val, err := s.db.Get(KeyWriteSet(version))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ws, ok := DecodeWriteSet(val)
	if !ok {
		return nil, fmt.Errorf("%w: write set at version %d", ErrCorruptRecord, version)
	}
	return ws, nil
}

// FirstWriteSetVersion seeks the lowest-ordered entry of the write-set log.
// Returns ok=false on an empty log.
func (s *WriteSetStore) FirstWriteSetVersion() (version uint64, ok bool, err error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: writeSetPrefix,
		UpperBound: prefixSuccessor(writeSetPrefix),
	})
	if err != nil {
		return 0, false, err
	}
	defer iter.Close()

	if !iter.First() {
		return 0, false, iter.Error()
	}
	version, okKey := ParseWriteSetKey(iter.Key())
	if !okKey {
		return 0, false, fmt.Errorf("%w: write set key %x", ErrCorruptRecord, iter.Key())
	}
	return version, true, nil
}

// PruneWriteSets enqueues deletion of all write sets over versions [start, end).
func (s *WriteSetStore) PruneWriteSets(b *pebble.Batch, start, end uint64) error {
	if start >= end {
		return nil
	}
	lo, hi := WriteSetRange(start, end)
	return b.DeleteRange(lo, hi, nil)
}
