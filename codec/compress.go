package codec

import (
	"fmt"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Compressor compresses encoded payloads before they reach the store.
type Compressor interface {
	Compress(b []byte) ([]byte, error)
	Decompress(b []byte) ([]byte, error)
}

type s2c struct{}

// S2 returns a fast compressor using S2 (improved Snappy).
func S2() Compressor { return s2c{} }

func (s2c) Compress(b []byte) ([]byte, error)   { return s2.Encode(nil, b), nil }
func (s2c) Decompress(b []byte) ([]byte, error) { return s2.Decode(nil, b) }

type zstdc struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Zstd returns a Zstandard compressor. level: 1 (fastest) to 4 (best).
func Zstd(level int) (Compressor, error) {
	lvl := zstd.SpeedDefault
	if level <= 1 {
		lvl = zstd.SpeedFastest
	} else if level >= 4 {
		lvl = zstd.SpeedBestCompression
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(lvl))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &zstdc{enc: enc, dec: dec}, nil
}

func (z *zstdc) Compress(b []byte) ([]byte, error)   { return z.enc.EncodeAll(b, nil), nil }
func (z *zstdc) Decompress(b []byte) ([]byte, error) { return z.dec.DecodeAll(b, nil) }

// Compressed wraps Inner and compresses its output. Useful for large
// collection entries on a remote store.
type Compressed[V any] struct {
	Inner Codec[V]
	With  Compressor
}

func (c Compressed[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return c.With.Compress(b)
}

func (c Compressed[V]) Decode(b []byte) (V, error) {
	raw, err := c.With.Decompress(b)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("decompress: %w", err)
	}
	return c.Inner.Decode(raw)
}
