package utils

import (
	"bytes"

	"github.com/pierrec/lz4/v4"
)

// LZ4 compresses with the LZ4 frame format at its highest level.
type LZ4 struct{}

func (LZ4) Name() string { return "lz4" }

func (LZ4) Compress(data []byte) ([]byte, error) { return CompressLZ4(data) }

func (LZ4) Decompress(data []byte) ([]byte, error) { return DecompressLZ4(data) }

func CompressLZ4(data []byte) ([]byte, error) {
	var out bytes.Buffer
	w := lz4.NewWriter(&out)
	if err := w.Apply(lz4.CompressionLevelOption(lz4.Level9)); err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func DecompressLZ4(compressed []byte) ([]byte, error) {
	r := bytes.NewReader(compressed)
	reader := lz4.NewReader(r)
	return readLimited(reader)
}
