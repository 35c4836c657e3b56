package positionsmap

import (
	"positionsmap/utils"
)

// NumericEncoder turns a sequence of non-negative integers into a
// self-delimiting byte string and back.
type NumericEncoder interface {
	Encode(values []uint64) ([]byte, error)
	Decode(data []byte) ([]uint64, error)
}

// Compressor is a deterministic, lossless byte compressor. Implementations
// compress at their maximum level.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Codec binds the numeric encoder and compressor used by Pack and Unpack.
// A Codec holds no mutable state and may be shared between goroutines as
// long as its collaborators are stateless.
type Codec struct {
	numeric    NumericEncoder
	compressor Compressor
}

// New returns a codec over the given collaborators. A nil collaborator is
// not rejected here; Pack and Unpack fail closed on it.
func New(numeric NumericEncoder, compressor Compressor) *Codec {
	return &Codec{numeric: numeric, compressor: compressor}
}

var defaultCodec = New(utils.Varint{}, utils.Zlib{})

// Default returns the codec used by the package-level Pack and Unpack:
// LEB128 varints compressed with zlib at BestCompression.
func Default() *Codec {
	return defaultCodec
}

// Pack serializes positions with the default codec.
func Pack(positions []uint64) ([]byte, error) {
	return defaultCodec.Pack(positions)
}

// Unpack deserializes packed bytes with the default codec.
func Unpack(packed []byte) ([]uint64, error) {
	return defaultCodec.Unpack(packed)
}

// Name reports "numeric+compressor" for collaborators that name
// themselves. A nil codec is "none+none".
func (c *Codec) Name() string {
	if c == nil {
		return "none+none"
	}
	return nameOf(c.numeric) + "+" + nameOf(c.compressor)
}

// Pack delta-encodes positions, encodes the deltas as variable-length
// numbers and compresses the result. An empty sequence packs to an empty,
// non-nil byte slice. On failure the returned slice is nil.
func (c *Codec) Pack(positions []uint64) ([]byte, error) {
	const op = "pack"
	if err := c.check(op); err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return []byte{}, nil
	}

	deltas, err := deltaEncode(op, positions)
	if err != nil {
		return nil, err
	}

	encoded, err := c.numeric.Encode(deltas)
	if err != nil {
		return nil, newError(KindEncodingFailure, op, -1, err)
	}

	packed, err := c.compressor.Compress(encoded)
	if err != nil {
		return nil, newError(KindCompressionFailure, op, -1, err)
	}
	return packed, nil
}

// Unpack reverses Pack. Nil or empty input yields an empty, non-nil
// sequence. On failure the returned slice is nil.
func (c *Codec) Unpack(packed []byte) ([]uint64, error) {
	const op = "unpack"
	if err := c.check(op); err != nil {
		return nil, err
	}
	if len(packed) == 0 {
		return []uint64{}, nil
	}

	encoded, err := c.compressor.Decompress(packed)
	if err != nil {
		return nil, newError(KindDecompressionFailure, op, -1, err)
	}

	deltas, err := c.numeric.Decode(encoded)
	if err != nil {
		return nil, newError(KindDecodingFailure, op, -1, err)
	}

	return deltaDecode(op, deltas)
}

func (c *Codec) check(op string) error {
	if c == nil || c.numeric == nil || c.compressor == nil {
		return newError(KindPreconditionRejected, op, -1, errIncompleteCodec)
	}
	return nil
}

func nameOf(v any) string {
	if n, ok := v.(interface{ Name() string }); ok {
		return n.Name()
	}
	if v == nil {
		return "none"
	}
	return "custom"
}
