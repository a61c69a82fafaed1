package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOROptions tunes the CBOR codec.
type CBOROptions struct {
	// Deterministic selects RFC 8949 Core Deterministic encoding, so equal
	// values always produce equal bytes across processes.
	Deterministic bool

	// Decode limits for entries read back from a shared store.
	// 0 => library defaults (32 levels, 131072 elements).
	MaxNestedLevels  int
	MaxArrayElements int
	MaxMapPairs      int
}

// CBOR serializes values using fxamacker/cbor. Times are encoded as
// RFC3339Nano strings and duplicate map keys are rejected on decode.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](o CBOROptions) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if o.Deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dm, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels:  o.MaxNestedLevels,
		MaxArrayElements: o.MaxArrayElements,
		MaxMapPairs:      o.MaxMapPairs,
	}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR builds a CBOR codec with default limits and panics on error.
// Meant for package-level variables and tests.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](CBOROptions{Deterministic: deterministic})
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
