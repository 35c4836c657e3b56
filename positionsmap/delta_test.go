package positionsmap

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltaEncodeLiteral(t *testing.T) {
	positions := []uint64{0, 5, 12, 18, 33, 100, 228, 3256, 3289, 3311, 3315}

	deltas, err := Delta(positions, Encode)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 5, 7, 6, 15, 67, 128, 3028, 33, 22, 4}, deltas)

	back, err := Delta(deltas, Decode)
	require.NoError(t, err)
	assert.Equal(t, positions, back)
}

func TestDeltaEmpty(t *testing.T) {
	for _, dir := range []Direction{Encode, Decode} {
		out, err := Delta(nil, dir)
		require.NoError(t, err, dir.String())
		assert.Empty(t, out)

		out, err = Delta([]uint64{}, dir)
		require.NoError(t, err, dir.String())
		assert.Empty(t, out)
	}
}

func TestDeltaEncodeRejectsDecrease(t *testing.T) {
	tests := []struct {
		name      string
		values    []uint64
		wantIndex int
	}{
		{"pair", []uint64{5, 3}, 1},
		{"middle", []uint64{5, 2, 9}, 1},
		{"tail", []uint64{1, 2, 3, 4, 0}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := append([]uint64(nil), tt.values...)

			out, err := Delta(input, Encode)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, ErrNonMonotonicInput))
			assert.Equal(t, KindNonMonotonicInput, KindOf(err))

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.wantIndex, e.Index)

			// input is left untouched
			assert.Equal(t, tt.values, input)
		})
	}
}

func TestDeltaEqualNeighboursAllowed(t *testing.T) {
	deltas, err := Delta([]uint64{7, 7, 7, 9}, Encode)
	require.NoError(t, err)
	assert.Equal(t, []uint64{7, 0, 0, 2}, deltas)
}

func TestDeltaDecodeOverflow(t *testing.T) {
	_, err := Delta([]uint64{math.MaxUint64, 1}, Decode)
	require.ErrorIs(t, err, ErrDecodingFailure)
}

func TestDeltaUnknownDirection(t *testing.T) {
	_, err := Delta([]uint64{1, 2}, Direction(0))
	require.ErrorIs(t, err, ErrPreconditionRejected)
}

func TestDeltaInverseProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := rng.Intn(64)

		positions := make([]uint64, n)
		var cur uint64
		for i := range positions {
			cur += uint64(rng.Intn(1000))
			positions[i] = cur
		}
		deltas, err := DeltaEncode(positions)
		require.NoError(t, err)
		back, err := DeltaDecode(deltas)
		require.NoError(t, err)
		require.Equal(t, positions, back)

		d := make([]uint32, n)
		for i := range d {
			d[i] = uint32(rng.Intn(1 << 16))
		}
		sums, err := DeltaDecode(d)
		require.NoError(t, err)
		again, err := DeltaEncode(sums)
		require.NoError(t, err)
		require.Equal(t, d, again)
	}
}
