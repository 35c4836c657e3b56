package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"positionsmap/positionsmap"
)

func TestOffsets(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []uint64
	}{
		{"empty", "", []uint64{}},
		{"spaces", "   ", []uint64{}},
		{"ascii", "the quick  fox", []uint64{0, 4, 11}},
		{"punctuation", "¡hola, señor!", []uint64{2, 8}},
		{"cyrillic", "слово и дело", []uint64{0, 11, 14}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Offsets(tt.text))
		})
	}
}

func TestRanges(t *testing.T) {
	text := "search results need highlight ranges"
	offsets := Offsets(text)

	got, err := Ranges(text, offsets, []int{0, 3})
	require.NoError(t, err)
	assert.Equal(t, []Range{{0, 6}, {20, 29}}, got)
	assert.Equal(t, "highlight", text[got[1].Start:got[1].End])

	_, err = Ranges(text, offsets, []int{5})
	require.ErrorIs(t, err, ErrWordOutOfRange)
	_, err = Ranges(text, offsets, []int{-1})
	require.ErrorIs(t, err, ErrWordOutOfRange)
	_, err = Ranges("short", []uint64{0, 99}, []int{1})
	require.ErrorIs(t, err, ErrOffsetOutOfText)
}

func TestMark(t *testing.T) {
	text := "alpha beta gamma"

	assert.Equal(t, "<b>alpha</b> beta <b>gamma</b>",
		Mark(text, []Range{{11, 16}, {0, 5}}, "<b>", "</b>"))
	assert.Equal(t, "<b>alpha beta</b> gamma",
		Mark(text, []Range{{0, 5}, {5, 10}}, "<b>", "</b>"))
	assert.Equal(t, "alpha beta <b>gamma</b>",
		Mark(text, []Range{{11, 99}}, "<b>", "</b>"))
	assert.Equal(t, text, Mark(text, nil, "<b>", "</b>"))
}

func TestPackedOffsetsRoundTrip(t *testing.T) {
	text := "Упаковка массивов в бинарный компактный формат, где каждое значение больше или равно предыдущему"
	offsets := Offsets(text)

	packed, err := positionsmap.Pack(offsets)
	require.NoError(t, err)
	back, err := positionsmap.Unpack(packed)
	require.NoError(t, err)
	require.Equal(t, offsets, back)

	ranges, err := Ranges(text, back, []int{1, 5})
	require.NoError(t, err)
	assert.Equal(t, "массивов", text[ranges[0].Start:ranges[0].End])
	assert.Equal(t, "формат", text[ranges[1].Start:ranges[1].End])
}
