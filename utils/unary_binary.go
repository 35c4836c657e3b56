package utils

import (
	"errors"
	"math/bits"
)

var (
	ErrTruncatedUnaryBinary = errors.New("unary-binary: stream ends inside a value")
	ErrUnaryBinaryOverflow  = errors.New("unary-binary: value overflows uint64")
)

// UnaryBinary is a prefix-length numeric codec. The number of leading one
// bits in the first byte is the number of bytes that follow it:
//
//	0xxxxxxx                    2^7  values
//	10xxxxxx xxxxxxxx           2^14 values
//	110xxxxx xxxxxxxx xxxxxxxx  2^21 values
//	...
//	11111110 + 7 bytes          2^56 values
//	11111111 + 8 bytes          the rest of uint64
//
// Each class starts where the previous one ends, so every value has
// exactly one encoding. Payload bytes are big endian.
type UnaryBinary struct{}

// unaryBinaryBase[k] is the smallest value stored in class k.
var unaryBinaryBase = func() [9]uint64 {
	var base [9]uint64
	for k := 1; k < len(base); k++ {
		base[k] = base[k-1] + 1<<(7*k)
	}
	return base
}()

func (UnaryBinary) Name() string { return "unary-binary" }

func (UnaryBinary) Encode(values []uint64) ([]byte, error) {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		out = AppendUnaryBinary(out, v)
	}
	return out, nil
}

func (UnaryBinary) Decode(data []byte) ([]uint64, error) {
	out := make([]uint64, 0, len(data))
	for len(data) > 0 {
		v, n, err := ReadUnaryBinary(data)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		data = data[n:]
	}
	return out, nil
}

// AppendUnaryBinary appends the encoding of v to dst.
func AppendUnaryBinary(dst []byte, v uint64) []byte {
	k := 0
	for k < 8 && v >= unaryBinaryBase[k+1] {
		k++
	}
	p := v - unaryBinaryBase[k]

	if k == 8 {
		dst = append(dst, 0xFF)
		for shift := 56; shift >= 0; shift -= 8 {
			dst = append(dst, byte(p>>shift))
		}
		return dst
	}

	prefix := ^byte(0xFF >> k)
	mask := byte(0x7F >> k)
	dst = append(dst, prefix|byte(p>>(8*k))&mask)
	for shift := 8 * (k - 1); shift >= 0; shift -= 8 {
		dst = append(dst, byte(p>>shift))
	}
	return dst
}

// ReadUnaryBinary decodes one value from the front of data and returns it
// together with the number of bytes consumed.
func ReadUnaryBinary(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrTruncatedUnaryBinary
	}
	k := bits.LeadingZeros8(^data[0])
	if len(data) < k+1 {
		return 0, 0, ErrTruncatedUnaryBinary
	}

	var p uint64
	if k < 8 {
		p = uint64(data[0] & byte(0x7F>>k))
	}
	for _, b := range data[1 : k+1] {
		p = p<<8 | uint64(b)
	}

	v := unaryBinaryBase[k] + p
	if v < p {
		return 0, 0, ErrUnaryBinaryOverflow
	}
	return v, k + 1, nil
}
