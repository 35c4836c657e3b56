package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	ErrBadOffsets      = errors.New("blob offsets do not fit the data")
	ErrDecodedTooLarge = errors.New("decompressed data exceeds size limit")
)

// MaxDecodedSize caps the output of every Decompress in this package.
var MaxDecodedSize int64 = 16 << 20

// readLimited reads r to the end, failing once more than MaxDecodedSize
// bytes come out.
func readLimited(r io.Reader) ([]byte, error) {
	limit := MaxDecodedSize
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDecodedTooLarge, limit)
	}
	return out, nil
}

// ConcatBlobs joins blobs back to back and returns the n+1 boundary
// offsets: blob i spans offsets[i]..offsets[i+1].
func ConcatBlobs(blobs [][]byte) ([]byte, []uint64) {
	var buf bytes.Buffer
	offsets := make([]uint64, len(blobs), len(blobs)+1)
	var currentOffset uint64 = 0

	for i, b := range blobs {
		offsets[i] = currentOffset
		buf.Write(b)
		currentOffset += uint64(len(b))
	}

	offsets = append(offsets, currentOffset)

	return buf.Bytes(), offsets
}

// SplitBlob reverses ConcatBlobs. The returned slices alias data.
func SplitBlob(data []byte, offsets []uint64) ([][]byte, error) {
	if len(offsets) == 0 {
		return nil, fmt.Errorf("%w: no offsets", ErrBadOffsets)
	}
	blobs := make([][]byte, len(offsets)-1)
	for i := range blobs {
		start := offsets[i]
		end := offsets[i+1]
		if start > end || end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: blob %d spans %d..%d of %d bytes", ErrBadOffsets, i, start, end, len(data))
		}
		blobs[i] = data[start:end:end]
	}
	return blobs, nil
}
