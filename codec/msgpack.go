package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack serializes values using vmihailenco/msgpack/v5 with compact
// integers. The zero value is ready to use.
//
// UseJSONTag reads field names from `json` tags, so entity types tagged for
// JSON keep the same field names in the cache. Otherwise `msgpack` tags apply.
type Msgpack[V any] struct {
	UseJSONTag bool
}

var _ Codec[struct{}] = Msgpack[struct{}]{}

func (c Msgpack[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if c.UseJSONTag {
		enc.SetCustomStructTag("json")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	if c.UseJSONTag {
		dec.SetCustomStructTag("json")
	}
	err := dec.Decode(&v)
	return v, err
}
