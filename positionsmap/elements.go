package positionsmap

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FromInts converts signed integers, rejecting negative ones.
func FromInts(values []int64) ([]uint64, error) {
	out := make([]uint64, len(values))
	for i, v := range values {
		if v < 0 {
			return nil, newError(KindInvalidElementType, "convert", i, fmt.Errorf("negative value %d", v))
		}
		out[i] = uint64(v)
	}
	return out, nil
}

// ParseStrings converts decimal digit strings. Signs, spaces, fractions
// and exponents are rejected.
func ParseStrings(values []string) ([]uint64, error) {
	out := make([]uint64, len(values))
	for i, s := range values {
		v, err := parseDigits(s)
		if err != nil {
			return nil, newError(KindInvalidElementType, "convert", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// FromAny converts loosely typed elements such as a JSON array decoded
// with UseNumber. Integers of any width, json.Number and digit strings are
// accepted when they hold a non-negative integer.
func FromAny(values []any) ([]uint64, error) {
	out := make([]uint64, len(values))
	for i, x := range values {
		v, err := anyToUint(x)
		if err != nil {
			return nil, newError(KindInvalidElementType, "convert", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func anyToUint(x any) (uint64, error) {
	switch v := x.(type) {
	case uint64:
		return v, nil
	case uint:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case int:
		return signed(int64(v))
	case int64:
		return signed(v)
	case int32:
		return signed(int64(v))
	case int16:
		return signed(int64(v))
	case int8:
		return signed(int64(v))
	case json.Number:
		return parseDigits(string(v))
	case string:
		return parseDigits(v)
	default:
		return 0, fmt.Errorf("unsupported type %T", x)
	}
}

func signed(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("negative value %d", v)
	}
	return uint64(v), nil
}

func parseDigits(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%q is not a decimal integer", s)
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}
