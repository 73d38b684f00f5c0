package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
)

// Record encodings. Every stored value carries a trailing CRC32C so that a
// torn or corrupted record is detected on read rather than misdecoded.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EventKeySize is the fixed width of an event key in bytes.
const EventKeySize = 32

// EventKey identifies one event stream. Fixed width keeps index keys
// byte-wise sortable without length framing.
type EventKey [EventKeySize]byte

// EventKeyFromBytes copies b into an EventKey. Short input is zero-padded on
// the right; long input is truncated.
func EventKeyFromBytes(b []byte) EventKey {
	var k EventKey
	copy(k[:], b)
	return k
}

func (k EventKey) String() string {
	return hex.EncodeToString(k[:8])
}

// Event is one entry in the event log: a keyed, sequence-numbered payload
// recorded at some ledger version.
type Event struct {
	Key            EventKey
	SequenceNumber uint64
	Data           []byte
}

// Event value layout: key(32) | seq_be8 | data | crc_be4

// EncodeEvent serializes an event for the primary log.
func EncodeEvent(ev Event) []byte {
	out := make([]byte, 0, EventKeySize+8+len(ev.Data)+4)
	out = append(out, ev.Key[:]...)
	out = appendBE8(out, ev.SequenceNumber)
	out = append(out, ev.Data...)

	crc := crc32.Update(0, castagnoli, out)
	out = appendBE4(out, crc)
	return out
}

// DecodeEvent deserializes an event value, verifying the checksum.
func DecodeEvent(b []byte) (Event, bool) {
	if len(b) < EventKeySize+8+4 {
		return Event{}, false
	}
	body := b[:len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Update(0, castagnoli, body) != expect {
		return Event{}, false
	}
	var ev Event
	copy(ev.Key[:], body[:EventKeySize])
	ev.SequenceNumber = binary.BigEndian.Uint64(body[EventKeySize : EventKeySize+8])
	ev.Data = append([]byte(nil), body[EventKeySize+8:]...)
	return ev, true
}

// LeafHash returns the accumulator leaf for an encoded event value.
func LeafHash(encoded []byte) []byte {
	h := sha256.Sum256(encoded)
	return h[:]
}

// WriteOp is one mutation in a write set.
type WriteOp struct {
	Delete bool
	Key    []byte
	Value  []byte
}

// WriteSet is the ordered set of state mutations committed at one version.
type WriteSet []WriteOp

// Write-set value layout:
//
//	varint count | per op: flag(1) varint keyLen key varint valLen val | crc_be4

// EncodeWriteSet serializes a write set for the write-set log.
func EncodeWriteSet(ws WriteSet) []byte {
	var tmp [binary.MaxVarintLen64]byte
	out := make([]byte, 0, 16)
	n := binary.PutUvarint(tmp[:], uint64(len(ws)))
	out = append(out, tmp[:n]...)
	for _, op := range ws {
		flag := byte(0)
		if op.Delete {
			flag = 1
		}
		out = append(out, flag)
		n = binary.PutUvarint(tmp[:], uint64(len(op.Key)))
		out = append(out, tmp[:n]...)
		out = append(out, op.Key...)
		n = binary.PutUvarint(tmp[:], uint64(len(op.Value)))
		out = append(out, tmp[:n]...)
		out = append(out, op.Value...)
	}
	crc := crc32.Update(0, castagnoli, out)
	out = appendBE4(out, crc)
	return out
}

// DecodeWriteSet deserializes a write-set value, verifying the checksum.
func DecodeWriteSet(b []byte) (WriteSet, bool) {
	if len(b) < 1+4 {
		return nil, false
	}
	body := b[:len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Update(0, castagnoli, body) != expect {
		return nil, false
	}

	count, n := binary.Uvarint(body)
	if n <= 0 {
		return nil, false
	}
	body = body[n:]
	ws := make(WriteSet, 0, count)
	for i := uint64(0); i < count; i++ {
		if len(body) < 1 {
			return nil, false
		}
		op := WriteOp{Delete: body[0] == 1}
		body = body[1:]

		klen, n := binary.Uvarint(body)
		if n <= 0 || uint64(len(body)-n) < klen {
			return nil, false
		}
		op.Key = append([]byte(nil), body[n:n+int(klen)]...)
		body = body[n+int(klen):]

		vlen, n := binary.Uvarint(body)
		if n <= 0 || uint64(len(body)-n) < vlen {
			return nil, false
		}
		op.Value = append([]byte(nil), body[n:n+int(vlen)]...)
		body = body[n+int(vlen):]

		ws = append(ws, op)
	}
	if len(body) != 0 {
		return nil, false
	}
	return ws, true
}

// encodeEventPointer packs (version, index) for event-by-key index values.
func encodeEventPointer(version uint64, index uint32) []byte {
	out := make([]byte, 0, 12)
	out = appendBE8(out, version)
	out = appendBE4(out, index)
	return out
}

// decodeEventPointer unpacks an event-by-key index value.
func decodeEventPointer(b []byte) (version uint64, index uint32, ok bool) {
	if len(b) != 12 {
		return 0, 0, false
	}
	return binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint32(b[8:12]), true
}
