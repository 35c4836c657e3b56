package positionsmap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"positionsmap/utils"
)

var (
	ErrUnknownCodec = errors.New("unknown codec")

	errIncompleteCodec = errors.New("codec has no numeric encoder or compressor")
)

var numericCodecs = map[string]NumericEncoder{
	"varint":       utils.Varint{},
	"unary-binary": utils.UnaryBinary{},
}

var compressors = map[string]Compressor{
	"zlib":   utils.Zlib{},
	"gzip":   utils.Gzip{},
	"lz4":    utils.LZ4{},
	"snappy": utils.Snappy{},
}

// NumericCodecByName looks up a built-in numeric encoder.
func NumericCodecByName(name string) (NumericEncoder, error) {
	n, ok := numericCodecs[name]
	if !ok {
		return nil, fmt.Errorf("%w: numeric %q", ErrUnknownCodec, name)
	}
	return n, nil
}

// CompressorByName looks up a built-in compressor.
func CompressorByName(name string) (Compressor, error) {
	c, ok := compressors[name]
	if !ok {
		return nil, fmt.Errorf("%w: compressor %q", ErrUnknownCodec, name)
	}
	return c, nil
}

// NewNamed builds a codec from built-in collaborator names.
func NewNamed(numeric, compressor string) (*Codec, error) {
	n, err := NumericCodecByName(numeric)
	if err != nil {
		return nil, err
	}
	c, err := CompressorByName(compressor)
	if err != nil {
		return nil, err
	}
	return New(n, c), nil
}

// ParseName builds a codec from the "numeric+compressor" form reported by
// Codec.Name.
func ParseName(name string) (*Codec, error) {
	numeric, compressor, ok := strings.Cut(name, "+")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	return NewNamed(numeric, compressor)
}

// NumericCodecNames lists the built-in numeric encoders, sorted.
func NumericCodecNames() []string {
	return sortedKeys(numericCodecs)
}

// CompressorNames lists the built-in compressors, sorted.
func CompressorNames() []string {
	return sortedKeys(compressors)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
