package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

var errNilMessage = errors.New("codec: protobuf constructor returned nil")

// Protobuf caches generated protobuf messages. Encoding is deterministic so
// equal messages produce equal entries; unknown fields written by newer
// schema versions are dropped on decode.
type Protobuf[T proto.Message] struct {
	new func() T // e.g. func() *pb.User { return &pb.User{} }
}

// NewProtobuf panics on a nil ctor.
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	if ctor == nil {
		panic("codec: nil protobuf constructor")
	}
	return Protobuf[T]{new: ctor}
}

var (
	pbMarshal   = proto.MarshalOptions{Deterministic: true}
	pbUnmarshal = proto.UnmarshalOptions{DiscardUnknown: true}
)

func (c Protobuf[T]) Encode(v T) ([]byte, error) { return pbMarshal.Marshal(v) }

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	if !m.ProtoReflect().IsValid() {
		var zero T
		return zero, errNilMessage
	}
	err := pbUnmarshal.Unmarshal(b, m)
	return m, err
}
