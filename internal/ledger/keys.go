package ledger

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable; all ordinals big-endian):
// - evt/{version_be8}/{index_be4}   primary event log
// - evk/{key_32B}/{seq_be8}         event-by-key index
// - eva/{version_be8}/{pos_be8}     event accumulator leaves
// - evv/{version_be8}/{key_32B}     event-by-version index
// - wst/{version_be8}               write-set log
var (
	sep                  = byte('/')
	eventLogPrefix       = []byte("evt/")
	eventByKeyPrefix     = []byte("evk/")
	accumulatorPrefix    = []byte("eva/")
	eventByVersionPrefix = []byte("evv/")
	writeSetPrefix       = []byte("wst/")
)

func appendBE4(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyEventLog builds the primary event log key for one event within a version.
func KeyEventLog(version uint64, index uint32) []byte {
	k := make([]byte, 0, 17)
	k = append(k, eventLogPrefix...)
	k = appendBE8(k, version)
	k = append(k, sep)
	k = appendBE4(k, index)
	return k
}

// ParseEventLogKey extracts the version and index from a primary event log key.
func ParseEventLogKey(k []byte) (version uint64, index uint32, ok bool) {
	if len(k) != 17 || string(k[:4]) != string(eventLogPrefix) || k[12] != sep {
		return 0, 0, false
	}
	return binary.BigEndian.Uint64(k[4:12]), binary.BigEndian.Uint32(k[13:17]), true
}

// KeyEventByKey builds the secondary index key for (event key, sequence number).
func KeyEventByKey(key EventKey, seq uint64) []byte {
	k := make([]byte, 0, 4+EventKeySize+1+8)
	k = append(k, eventByKeyPrefix...)
	k = append(k, key[:]...)
	k = append(k, sep)
	k = appendBE8(k, seq)
	return k
}

// KeyEventAccumulator builds the accumulator leaf key for (version, position).
func KeyEventAccumulator(version, pos uint64) []byte {
	k := make([]byte, 0, 21)
	k = append(k, accumulatorPrefix...)
	k = appendBE8(k, version)
	k = append(k, sep)
	k = appendBE8(k, pos)
	return k
}

// KeyEventByVersion builds the version-keyed index entry for (version, event key).
func KeyEventByVersion(version uint64, key EventKey) []byte {
	k := make([]byte, 0, 4+8+1+EventKeySize)
	k = append(k, eventByVersionPrefix...)
	k = appendBE8(k, version)
	k = append(k, sep)
	k = append(k, key[:]...)
	return k
}

// KeyWriteSet builds the write-set log key for a version.
func KeyWriteSet(version uint64) []byte {
	k := make([]byte, 0, 12)
	k = append(k, writeSetPrefix...)
	k = appendBE8(k, version)
	return k
}

// ParseWriteSetKey extracts the version from a write-set log key.
func ParseWriteSetKey(k []byte) (version uint64, ok bool) {
	if len(k) != 12 || string(k[:4]) != string(writeSetPrefix) {
		return 0, false
	}
	return binary.BigEndian.Uint64(k[4:12]), true
}

// versionRange returns [prefix+be8(start), prefix+be8(end)) bounds. Keys of
// version v always carry a suffix after the be8 ordinal, so prefix+be8(end)
// sorts strictly below every key of version end and the bound is exclusive.
func versionRange(prefix []byte, start, end uint64) (lo, hi []byte) {
	lo = appendBE8(append([]byte(nil), prefix...), start)
	hi = appendBE8(append([]byte(nil), prefix...), end)
	return lo, hi
}

// EventLogRange bounds the primary event log over versions [start, end).
func EventLogRange(start, end uint64) (lo, hi []byte) {
	return versionRange(eventLogPrefix, start, end)
}

// AccumulatorRange bounds the accumulator leaves over versions [start, end).
func AccumulatorRange(start, end uint64) (lo, hi []byte) {
	return versionRange(accumulatorPrefix, start, end)
}

// EventByVersionRange bounds the version-keyed index over versions [start, end).
func EventByVersionRange(start, end uint64) (lo, hi []byte) {
	return versionRange(eventByVersionPrefix, start, end)
}

// WriteSetRange bounds the write-set log over versions [start, end). Write-set
// keys have no suffix after the ordinal, so the exclusive upper bound is the
// key of version end itself.
func WriteSetRange(start, end uint64) (lo, hi []byte) {
	return versionRange(writeSetPrefix, start, end)
}

// EventByKeyRange bounds one key's secondary index entries over sequence
// numbers [minSeq, maxSeq] inclusive. The upper bound is the immediate
// successor of the maxSeq key, so maxSeq = ^uint64(0) needs no special case.
func EventByKeyRange(key EventKey, minSeq, maxSeq uint64) (lo, hi []byte) {
	lo = KeyEventByKey(key, minSeq)
	hi = append(KeyEventByKey(key, maxSeq), 0x00)
	return lo, hi
}

// prefixSuccessor returns the smallest key greater than every key with the
// given prefix, for use as an exclusive upper bound on whole-schema scans.
func prefixSuccessor(prefix []byte) []byte {
	out := append([]byte(nil), prefix...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}
