package metastore

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"positionsmap/positionsmap"
)

// Document is a stored position map.
type Document struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
	// Codec is the "numeric+compressor" name Packed was written with.
	Codec        string    `json:"codec"`
	Packed       []byte    `json:"packed"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// NewDocument packs positions with codec into a new document.
func NewDocument(name string, codec *positionsmap.Codec, positions []uint64) (*Document, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	packed, err := codec.Pack(positions)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Document{
		ID:           uuid.NewString(),
		Name:         name,
		Count:        len(positions),
		Codec:        codec.Name(),
		Packed:       packed,
		CreatedAt:    now,
		LastModified: now,
	}, nil
}

// Positions unpacks the document with the codec it was written with.
func (d *Document) Positions() ([]uint64, error) {
	codec, err := positionsmap.ParseName(d.Codec)
	if err != nil {
		return nil, err
	}
	return codec.Unpack(d.Packed)
}

func (d *Document) clone() *Document {
	c := *d
	c.Packed = append([]byte(nil), d.Packed...)
	return &c
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty document name", ErrInvalidName)
	}
	if strings.ContainsAny(name, "/\\:*?\"<>|") {
		return fmt.Errorf("%w: invalid characters in document name", ErrInvalidName)
	}
	return nil
}
