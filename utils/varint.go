package utils

import "errors"

var (
	ErrTruncatedVarint = errors.New("varint: stream ends inside a value")
	ErrVarintOverflow  = errors.New("varint: value overflows uint64")
)

// MaxVarintLen is the longest encoding of a uint64.
const MaxVarintLen = 10

// Varint is the LEB128 numeric codec: 7 data bits per byte, low groups
// first, high bit set on every byte except the last of a value.
type Varint struct{}

func (Varint) Name() string { return "varint" }

func (Varint) Encode(values []uint64) ([]byte, error) {
	return VariableLengthEncode(values), nil
}

func (Varint) Decode(data []byte) ([]uint64, error) {
	return VariableLengthDecode(data)
}

func VariableLengthEncode(integers []uint64) []byte {
	result := make([]byte, 0, len(integers)*2)

	for _, n := range integers {
		for {
			b := byte(n & 0x7F)
			n >>= 7

			if n != 0 {
				b |= 0x80
			}

			result = append(result, b)

			if n == 0 {
				break
			}
		}
	}

	return result
}

func VariableLengthDecode(data []byte) ([]uint64, error) {
	result := make([]uint64, 0, len(data))
	var current uint64
	var shift uint
	var length int

	for _, currentByte := range data {
		length++
		// the tenth byte may only carry the single top bit
		if length == MaxVarintLen && currentByte > 1 {
			return nil, ErrVarintOverflow
		}

		current |= uint64(currentByte&0x7F) << shift
		shift += 7

		if currentByte&0x80 == 0 {
			result = append(result, current)
			current = 0
			shift = 0
			length = 0
		}
	}

	if length != 0 {
		return nil, ErrTruncatedVarint
	}

	return result, nil
}
