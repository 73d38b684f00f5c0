package ledger

import (
	"bytes"
	"testing"
)

func TestEventEncodeDecode(t *testing.T) {
	ev := Event{
		Key:            EventKeyFromBytes([]byte("orders")),
		SequenceNumber: 17,
		Data:           []byte("payload"),
	}
	enc := EncodeEvent(ev)
	dec, ok := DecodeEvent(enc)
	if !ok {
		t.Fatalf("decode failed")
	}
	if dec.Key != ev.Key || dec.SequenceNumber != 17 || !bytes.Equal(dec.Data, ev.Data) {
		t.Fatalf("round trip mismatch: %+v", dec)
	}
}

func TestEventDecodeRejectsCorruption(t *testing.T) {
	enc := EncodeEvent(Event{Key: EventKeyFromBytes([]byte("k")), SequenceNumber: 1, Data: []byte("d")})
	enc[EventKeySize+9] ^= 0xff
	if _, ok := DecodeEvent(enc); ok {
		t.Fatalf("corrupted event should not decode")
	}
	if _, ok := DecodeEvent(enc[:10]); ok {
		t.Fatalf("truncated event should not decode")
	}
}

func TestWriteSetEncodeDecode(t *testing.T) {
	ws := WriteSet{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: nil, Delete: true},
		{Key: []byte("c"), Value: []byte("long-value-with-some-bytes")},
	}
	dec, ok := DecodeWriteSet(EncodeWriteSet(ws))
	if !ok {
		t.Fatalf("decode failed")
	}
	if len(dec) != 3 {
		t.Fatalf("got %d ops want 3", len(dec))
	}
	if !dec[1].Delete || !bytes.Equal(dec[1].Key, []byte("b")) {
		t.Fatalf("delete op mismatch: %+v", dec[1])
	}
	if !bytes.Equal(dec[2].Value, ws[2].Value) {
		t.Fatalf("value mismatch: %q", dec[2].Value)
	}
}

func TestWriteSetEmptyAndCorrupt(t *testing.T) {
	dec, ok := DecodeWriteSet(EncodeWriteSet(nil))
	if !ok || len(dec) != 0 {
		t.Fatalf("empty write set should round trip, got ok=%v len=%d", ok, len(dec))
	}

	enc := EncodeWriteSet(WriteSet{{Key: []byte("k"), Value: []byte("v")}})
	enc[2] ^= 0xff
	if _, ok := DecodeWriteSet(enc); ok {
		t.Fatalf("corrupted write set should not decode")
	}
}

func TestLeafHashStable(t *testing.T) {
	enc := EncodeEvent(Event{Key: EventKeyFromBytes([]byte("k")), SequenceNumber: 2, Data: []byte("x")})
	h1 := LeafHash(enc)
	h2 := LeafHash(enc)
	if !bytes.Equal(h1, h2) {
		t.Fatalf("leaf hash not deterministic")
	}
	if len(h1) != 32 {
		t.Fatalf("leaf hash must be 32 bytes, got %d", len(h1))
	}
}
