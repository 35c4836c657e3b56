package positionsmap

import (
	"golang.org/x/exp/constraints"
)

// Direction selects the delta transform direction.
type Direction int

const (
	Encode Direction = iota + 1
	Decode
)

func (d Direction) String() string {
	switch d {
	case Encode:
		return "encode"
	case Decode:
		return "decode"
	default:
		return "unknown"
	}
}

// Delta converts between a weakly monotonic sequence and its successive
// differences. The input is never modified.
func Delta(values []uint64, dir Direction) ([]uint64, error) {
	switch dir {
	case Encode:
		return deltaEncode("delta", values)
	case Decode:
		return deltaDecode("delta", values)
	default:
		return nil, newError(KindPreconditionRejected, "delta", -1, nil)
	}
}

// DeltaEncode returns values[0] followed by values[i]-values[i-1]. It
// fails with ErrNonMonotonicInput at the first value smaller than its
// predecessor.
func DeltaEncode[T constraints.Unsigned](values []T) ([]T, error) {
	return deltaEncode("delta", values)
}

// DeltaDecode returns the running prefix sum of deltas.
func DeltaDecode[T constraints.Unsigned](deltas []T) ([]T, error) {
	return deltaDecode("delta", deltas)
}

func deltaEncode[T constraints.Unsigned](op string, values []T) ([]T, error) {
	out := make([]T, len(values))
	if len(values) == 0 {
		return out, nil
	}
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return nil, newError(KindNonMonotonicInput, op, i, nil)
		}
		out[i] = values[i] - values[i-1]
	}
	return out, nil
}

func deltaDecode[T constraints.Unsigned](op string, deltas []T) ([]T, error) {
	out := make([]T, len(deltas))
	if len(deltas) == 0 {
		return out, nil
	}
	out[0] = deltas[0]
	for i := 1; i < len(deltas); i++ {
		out[i] = out[i-1] + deltas[i]
		// wrapped around: no well-formed stream gets here
		if out[i] < out[i-1] {
			return nil, newError(KindDecodingFailure, op, i, nil)
		}
	}
	return out, nil
}
