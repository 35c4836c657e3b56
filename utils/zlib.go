package utils

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Zlib is DEFLATE in the zlib container (RFC 1950) at BestCompression.
type Zlib struct{}

func (Zlib) Name() string { return "zlib" }

func (Zlib) Compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w, err := zlib.NewWriterLevel(&b, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to get zlib writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zlib writer: %w", err)
	}
	return b.Bytes(), nil
}

func (Zlib) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to get zlib reader: %w", err)
	}
	out, err := readLimited(r)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to read all: %w", err)
	}
	if err := r.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zlib reader: %w", err)
	}
	return out, nil
}

// Gzip is DEFLATE in the gzip container (RFC 1952) at BestCompression.
type Gzip struct{}

func (Gzip) Name() string { return "gzip" }

func (Gzip) Compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w, err := gzip.NewWriterLevel(&b, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to get gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return b.Bytes(), nil
}

func (Gzip) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to get gzip reader: %w", err)
	}
	defer r.Close()
	out, err := readLimited(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read all: %w", err)
	}
	return out, nil
}
