package utils

import (
	"fmt"

	"github.com/golang/snappy"
)

// Snappy uses the snappy block format. It has no compression levels.
type Snappy struct{}

func (Snappy) Name() string { return "snappy" }

func (Snappy) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

// Decompress checks the length the block header announces before
// allocating the output.
func (Snappy) Decompress(data []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if int64(n) > MaxDecodedSize {
		return nil, fmt.Errorf("%w: header announces %d bytes", ErrDecodedTooLarge, n)
	}
	return snappy.Decode(nil, data)
}
