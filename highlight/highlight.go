// Package highlight builds word position maps from normalized text and
// turns stored positions back into highlight ranges.
package highlight

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrWordOutOfRange  = errors.New("word index out of range")
	ErrOffsetOutOfText = errors.New("offset outside of text")
)

// Range is a half-open byte range [Start, End) in a text.
type Range struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Offsets returns the byte offset of the first byte of every word in
// text. A word is a maximal run of letters, digits and combining marks.
func Offsets(text string) []uint64 {
	offsets := make([]uint64, 0, len(text)/6)
	inWord := false
	for i, r := range text {
		w := isWordRune(r)
		if w && !inWord {
			offsets = append(offsets, uint64(i))
		}
		inWord = w
	}
	return offsets
}

// wordEnd returns the end of the word run starting at start.
func wordEnd(text string, start int) int {
	i := start
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isWordRune(r) {
			break
		}
		i += size
	}
	return i
}

// Ranges resolves word indexes against a position map of text.
func Ranges(text string, offsets []uint64, words []int) ([]Range, error) {
	out := make([]Range, 0, len(words))
	for _, w := range words {
		if w < 0 || w >= len(offsets) {
			return nil, fmt.Errorf("%w: %d of %d", ErrWordOutOfRange, w, len(offsets))
		}
		start := offsets[w]
		if start >= uint64(len(text)) {
			return nil, fmt.Errorf("%w: word %d at %d, text has %d bytes", ErrOffsetOutOfText, w, start, len(text))
		}
		end := wordEnd(text, int(start))
		out = append(out, Range{Start: start, End: uint64(end)})
	}
	return out, nil
}

// Mark wraps every range of text in open and close. Ranges are sorted and
// overlapping or touching ones are merged first; ranges reaching past the
// text are clipped.
func Mark(text string, ranges []Range, open, close string) string {
	merged := merge(ranges, uint64(len(text)))
	if len(merged) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(merged)*(len(open)+len(close)))
	var pos uint64
	for _, r := range merged {
		b.WriteString(text[pos:r.Start])
		b.WriteString(open)
		b.WriteString(text[r.Start:r.End])
		b.WriteString(close)
		pos = r.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

func merge(ranges []Range, limit uint64) []Range {
	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.End > limit {
			r.End = limit
		}
		if r.Start >= r.End {
			continue
		}
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := sorted[:0]
	for _, r := range sorted {
		if n := len(out); n > 0 && r.Start <= out[n-1].End {
			if r.End > out[n-1].End {
				out[n-1].End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
