package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type entity struct {
	ID      int64     `json:"id" cbor:"id" msgpack:"id"`
	Name    string    `json:"name" cbor:"name" msgpack:"name"`
	Updated time.Time `json:"updated" cbor:"updated" msgpack:"updated"`
}

func roundTrip[V any](t *testing.T, c Codec[V], v V) V {
	t.Helper()
	b, err := c.Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestStructCodecs(t *testing.T) {
	in := entity{ID: 7, Name: "Ada", Updated: time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)}
	codecs := map[string]Codec[entity]{
		"json":     JSON[entity]{},
		"msgpack":  Msgpack[entity]{},
		"cbor":     MustCBOR[entity](false),
		"cbor-det": MustCBOR[entity](true),
		"s2":       Compressed[entity]{Inner: JSON[entity]{}, With: S2()},
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			got := roundTrip(t, c, in)
			if got.ID != in.ID || got.Name != in.Name || !got.Updated.Equal(in.Updated) {
				t.Fatalf("got %+v want %+v", got, in)
			}
		})
	}
}

func TestCBORDeterministic(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	first, _ := c.Encode(m)
	for i := 0; i < 10; i++ {
		again, _ := c.Encode(m)
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding changed between runs")
		}
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	got := roundTrip(t, Codec[*wrapperspb.StringValue](c), wrapperspb.String("natural-id"))
	if !proto.Equal(got, wrapperspb.String("natural-id")) {
		t.Fatalf("got %v", got)
	}
	if _, err := c.Decode([]byte{0xFF, 0xFF}); err == nil {
		t.Fatalf("expected error on garbage input")
	}
}

func TestRaw(t *testing.T) {
	if got := roundTrip(t, Codec[[]byte](Bytes{}), []byte{0, 1}); !bytes.Equal(got, []byte{0, 1}) {
		t.Fatalf("bytes: %v", got)
	}
	if got := roundTrip(t, Codec[string](String{}), "héllo"); got != "héllo" {
		t.Fatalf("string: %q", got)
	}
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxEncode: 3, MaxDecode: 4}
	if _, err := c.Decode([]byte("12345")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected size error, got %v", err)
	}
	if _, err := c.Encode("1234"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected encode size error, got %v", err)
	}
	if b, err := c.Encode("123"); err != nil || string(b) != "123" {
		t.Fatalf("boundary encode: b=%q err=%v", b, err)
	}
	if v, err := c.Decode([]byte("1234")); err != nil || v != "1234" {
		t.Fatalf("boundary payload: v=%q err=%v", v, err)
	}
	if v, err := (Limit[string]{Inner: String{}}).Decode([]byte("unbounded")); err != nil || v != "unbounded" {
		t.Fatalf("disabled limit: v=%q err=%v", v, err)
	}
}

func TestZstdShrinksRepetitivePayload(t *testing.T) {
	z, err := Zstd(3)
	if err != nil {
		t.Fatal(err)
	}
	c := Compressed[string]{Inner: String{}, With: z}
	in := strings.Repeat("collection-element,", 500)
	b, err := c.Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) >= len(in) {
		t.Fatalf("zstd did not compress: %d >= %d", len(b), len(in))
	}
	if got, err := c.Decode(b); err != nil || got != in {
		t.Fatalf("round trip failed: err=%v", err)
	}
	if _, err := c.Decode([]byte("not zstd")); err == nil {
		t.Fatalf("expected decompress error")
	}
}

func TestMsgpackJSONTags(t *testing.T) {
	type jsonOnly struct {
		UserID string `json:"user_id"`
	}
	c := Msgpack[jsonOnly]{UseJSONTag: true}
	b, err := c.Encode(jsonOnly{UserID: "42"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte("user_id")) {
		t.Fatalf("json tag not used: %q", b)
	}
	if got := roundTrip(t, Codec[jsonOnly](c), jsonOnly{UserID: "42"}); got.UserID != "42" {
		t.Fatalf("got %+v", got)
	}
}

func TestCBORRejectsDuplicateKeys(t *testing.T) {
	c := MustCBOR[map[string]int](false)
	// {"a": 1, "a": 2}
	dup := []byte{0xA2, 0x61, 'a', 0x01, 0x61, 'a', 0x02}
	if _, err := c.Decode(dup); err == nil {
		t.Fatalf("duplicate map key accepted")
	}
}

func TestCBORNestingLimit(t *testing.T) {
	c, err := NewCBOR[any](CBOROptions{MaxNestedLevels: 4})
	if err != nil {
		t.Fatal(err)
	}
	// five nested single-element arrays
	deep := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := c.Decode(deep); err == nil {
		t.Fatalf("nesting limit not enforced")
	}
}

func TestProtobufNilMessage(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return nil })
	if _, err := c.Decode(nil); err == nil {
		t.Fatalf("expected error for nil message")
	}
}
