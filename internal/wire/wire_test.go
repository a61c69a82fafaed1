package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestValueRoundTrip(t *testing.T) {
	for _, payload := range [][]byte{nil, []byte("hello"), {0, 1, 2, 3, 4}} {
		enc := EncodeValue(payload)
		k, err := Peek(enc)
		if err != nil || k != KindValue {
			t.Fatalf("Peek: kind=%v err=%v", k, err)
		}
		got, err := DecodeValue(enc)
		if err != nil {
			t.Fatalf("DecodeValue: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("payload mismatch: got %x want %x", got, payload)
		}
	}
}

func TestValueRejectsTrailingBytes(t *testing.T) {
	enc := EncodeValue([]byte("x"))
	enc = append(enc, 0xDE, 0xAD)
	if _, err := DecodeValue(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestValueCorruptHeadersAndLengths(t *testing.T) {
	enc := EncodeValue([]byte("abc"))

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, err := DecodeValue(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, err := DecodeValue(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	badKind := append([]byte(nil), enc...)
	badKind[5] = 0x7F
	if _, err := Peek(badKind); err == nil {
		t.Fatalf("expected error on unknown kind")
	}

	// vlen is at offset 6..9
	tooLong := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(tooLong[6:10], uint32(len("abc")+1))
	if _, err := DecodeValue(tooLong); err == nil {
		t.Fatalf("expected error on vlen beyond buffer")
	}

	if _, err := DecodeValue(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error on truncated buffer")
	}
	if _, err := DecodeValue([]byte("not-framed")); err == nil {
		t.Fatalf("expected error on foreign bytes")
	}
}

func TestKindMismatchIsCorrupt(t *testing.T) {
	item := EncodeItem(Item{Timestamp: 1, Version: 2, Payload: []byte("v")})
	if _, err := DecodeValue(item); err == nil {
		t.Fatalf("item decoded as value")
	}
	if _, err := DecodeLock(item); err == nil {
		t.Fatalf("item decoded as lock")
	}
	val := EncodeValue([]byte("v"))
	if _, err := DecodeItem(val); err == nil {
		t.Fatalf("value decoded as item")
	}
}

func TestItemRoundTrip(t *testing.T) {
	cases := []Item{
		{},
		{Timestamp: 42, Version: 7, Payload: []byte("payload")},
		{Timestamp: math.MaxInt64, Version: math.MaxUint64, Payload: []byte{9}},
		{Timestamp: -1, Version: 0, Payload: nil},
	}
	for _, tc := range cases {
		got, err := DecodeItem(EncodeItem(tc))
		if err != nil {
			t.Fatalf("DecodeItem: %v", err)
		}
		if got.Timestamp != tc.Timestamp || got.Version != tc.Version || !bytes.Equal(got.Payload, tc.Payload) {
			t.Fatalf("item mismatch: got=%+v want=%+v", got, tc)
		}
	}
}

func TestLockRoundTrip(t *testing.T) {
	l := Lock{
		Timeout:         1000,
		UnlockTimestamp: 900,
		Version:         3,
		ID:              17,
		Count:           2,
		Concurrent:      true,
		Source:          [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
	}
	got, err := DecodeLock(EncodeLock(l))
	if err != nil {
		t.Fatalf("DecodeLock: %v", err)
	}
	if got != l {
		t.Fatalf("lock mismatch: got=%+v want=%+v", got, l)
	}
}

func TestLockRejectsBadFlagAndLength(t *testing.T) {
	enc := EncodeLock(Lock{ID: 1, Count: 1})

	badFlag := append([]byte(nil), enc...)
	badFlag[hdrLen+36] = 2
	if _, err := DecodeLock(badFlag); err == nil {
		t.Fatalf("expected error on bad concurrent flag")
	}

	if _, err := DecodeLock(append(enc, 0)); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
	if _, err := DecodeLock(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error on truncated lock")
	}
}

func TestZeroCopyPayload(t *testing.T) {
	enc := EncodeItem(Item{Payload: []byte("Z")})
	it, err := DecodeItem(enc)
	if err != nil {
		t.Fatal(err)
	}
	it.Payload[0] = 'Q'
	it2, _ := DecodeItem(enc)
	if it2.Payload[0] != 'Q' {
		t.Fatalf("expected zero-copy slice into enc buffer")
	}
}
