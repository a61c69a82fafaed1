package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1

	hdrLen = 4 + 1 + 1
)

// Kind identifies the shape of a framed entry.
type Kind byte

const (
	KindValue Kind = 1 // plain cached value
	KindItem  Kind = 2 // read-write item: value + version + timestamp
	KindLock  Kind = 3 // read-write soft lock
)

var (
	ErrCorrupt = errors.New("l2cache: corrupt entry")
	magic4     = [...]byte{'L', '2', 'C', 'E'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

func header(buf *bytes.Buffer, k Kind) {
	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(byte(k))
}

// Peek returns the kind of a framed entry without decoding its body.
func Peek(b []byte) (Kind, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return 0, ErrCorrupt
	}
	switch k := Kind(b[5]); k {
	case KindValue, KindItem, KindLock:
		return k, nil
	default:
		return 0, ErrCorrupt
	}
}

// Value: magic(4) | ver(1) | kind(1=value) | vlen(u32 be) | payload(vlen)
func EncodeValue(payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + 4 + len(payload))
	header(&buf, KindValue)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])
	buf.Write(payload)
	return buf.Bytes()
}

func DecodeValue(b []byte) ([]byte, error) {
	if k, err := Peek(b); err != nil || k != KindValue {
		return nil, ErrCorrupt
	}
	return payloadAt(b, hdrLen)
}

// Item is a value cached by the read-write strategy.
type Item struct {
	Timestamp int64
	Version   uint64
	Payload   []byte
}

// Item: magic(4) | ver(1) | kind(2=item) | ts(i64 be) | version(u64 be) | vlen(u32 be) | payload(vlen)
func EncodeItem(it Item) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + 8 + 8 + 4 + len(it.Payload))
	header(&buf, KindItem)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(it.Timestamp))
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], it.Version)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(it.Payload)))
	buf.Write(u4[:])
	buf.Write(it.Payload)
	return buf.Bytes()
}

func DecodeItem(b []byte) (Item, error) {
	if k, err := Peek(b); err != nil || k != KindItem {
		return Item{}, ErrCorrupt
	}
	off := hdrLen
	if off+16 > len(b) {
		return Item{}, ErrCorrupt
	}
	it := Item{
		Timestamp: int64(binary.BigEndian.Uint64(b[off : off+8])),
		Version:   binary.BigEndian.Uint64(b[off+8 : off+16]),
	}
	p, err := payloadAt(b, off+16)
	if err != nil {
		return Item{}, err
	}
	it.Payload = p
	return it, nil
}

// Lock is the soft lock the read-write strategy stores in place of an item
// while a write is in flight.
type Lock struct {
	Timeout         int64
	UnlockTimestamp int64
	Version         uint64
	ID              uint64
	Count           uint32
	Concurrent      bool
	Source          [16]byte
}

const lockBody = 8 + 8 + 8 + 8 + 4 + 1 + 16

// Lock: magic(4) | ver(1) | kind(3=lock) | timeout(i64) | unlockTs(i64) | version(u64) |
// id(u64) | count(u32) | concurrent(1) | source(16)
func EncodeLock(l Lock) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + lockBody)
	header(&buf, KindLock)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(l.Timeout))
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], uint64(l.UnlockTimestamp))
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], l.Version)
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], l.ID)
	buf.Write(u8[:])
	binary.BigEndian.PutUint32(u4[:], l.Count)
	buf.Write(u4[:])
	if l.Concurrent {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.Write(l.Source[:])
	return buf.Bytes()
}

func DecodeLock(b []byte) (Lock, error) {
	if k, err := Peek(b); err != nil || k != KindLock {
		return Lock{}, ErrCorrupt
	}
	if len(b) != hdrLen+lockBody {
		return Lock{}, ErrCorrupt
	}
	off := hdrLen
	l := Lock{
		Timeout:         int64(binary.BigEndian.Uint64(b[off : off+8])),
		UnlockTimestamp: int64(binary.BigEndian.Uint64(b[off+8 : off+16])),
		Version:         binary.BigEndian.Uint64(b[off+16 : off+24]),
		ID:              binary.BigEndian.Uint64(b[off+24 : off+32]),
		Count:           binary.BigEndian.Uint32(b[off+32 : off+36]),
	}
	switch b[off+36] {
	case 0:
	case 1:
		l.Concurrent = true
	default:
		return Lock{}, ErrCorrupt
	}
	copy(l.Source[:], b[off+37:])
	return l, nil
}

// payloadAt reads vlen(u32 be) | payload(vlen) at off and requires it to end the buffer.
func payloadAt(b []byte, off int) ([]byte, error) {
	if off+4 > len(b) {
		return nil, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return nil, ErrCorrupt
	}
	return b[off : off+vlen], nil
}
