// Package codec converts region values to and from the bytes a store.Store
// keeps. A region owns exactly one Codec for its value type.
package codec

// Codec encodes/decodes values V to []byte for storage.
// Decode must accept every output of Encode; errors on Decode make the region
// drop the entry and report a miss.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
