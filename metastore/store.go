package metastore

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")
	ErrInvalidName      = errors.New("invalid document name")
	ErrUnknownBackend   = errors.New("unknown store backend")
)

// Store keeps documents by ID. Names are unique within a store.
type Store interface {
	// Put inserts a new document.
	Put(ctx context.Context, doc *Document) error

	// Get returns the document with the given ID.
	Get(ctx context.Context, id string) (*Document, error)

	// Delete removes the document with the given ID.
	Delete(ctx context.Context, id string) error

	// List returns all documents ordered by creation time.
	List(ctx context.Context) ([]*Document, error)

	// Close flushes and releases the store.
	Close() error
}

var (
	_ Store = (*Metastore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// Open opens the store named by backend: "json" for a JSON file or
// "sqlite" for an SQLite database at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "json":
		ms := NewMetastore(path)
		if err := ms.Load(); err != nil {
			return nil, fmt.Errorf("failed to load metastore: %w", err)
		}
		return ms, nil
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
