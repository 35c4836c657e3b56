package metastore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metastore keeps documents in memory and persists them as one JSON file.
// Every Put and Delete rewrites the file before returning.
type Metastore struct {
	Documents     map[string]*Document `json:"documents"`
	mu            sync.RWMutex
	saveMu        sync.Mutex
	metastorePath string
}

func NewMetastore(metastorePath string) *Metastore {
	return &Metastore{
		Documents:     make(map[string]*Document),
		metastorePath: metastorePath,
	}
}

func (m *Metastore) DebugMetadata() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Metastore:\n")
	if len(m.Documents) == 0 {
		b.WriteString("  (no documents)\n")
		return b.String()
	}

	for _, d := range m.sorted() {
		b.WriteString(fmt.Sprintf("Document: %s (%s)\n", d.Name, d.ID))
		b.WriteString(fmt.Sprintf("  Created: %s  LastModified: %s\n", d.CreatedAt.Format(time.RFC3339), d.LastModified.Format(time.RFC3339)))
		b.WriteString(fmt.Sprintf("  Positions: %d  Packed: %d bytes  Codec: %s\n", d.Count, len(d.Packed), d.Codec))
	}
	return b.String()
}

func (m *Metastore) PrintMetadata(w io.Writer) {
	_, _ = io.WriteString(w, m.DebugMetadata())
}

// Load from JSON file
func (m *Metastore) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.metastorePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.Documents = make(map[string]*Document)
			return nil
		}
		return fmt.Errorf("read error: %w", err)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if m.Documents == nil {
		m.Documents = make(map[string]*Document)
	}
	return nil
}

func (m *Metastore) Save() error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("serialize error: %w", err)
	}
	tmp := m.metastorePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	if err := os.Rename(tmp, m.metastorePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename error: %w", err)
	}
	return nil
}

func (m *Metastore) Put(_ context.Context, doc *Document) error {
	if err := validateName(doc.Name); err != nil {
		return err
	}

	m.mu.Lock()
	if _, exists := m.Documents[doc.ID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: id %s", ErrDocumentExists, doc.ID)
	}
	for _, d := range m.Documents {
		if d.Name == doc.Name {
			m.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDocumentExists, doc.Name)
		}
	}
	m.Documents[doc.ID] = doc.clone()
	m.mu.Unlock()

	if err := m.Save(); err != nil {
		m.mu.Lock()
		delete(m.Documents, doc.ID)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Metastore) Get(_ context.Context, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.Documents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return d.clone(), nil
}

func (m *Metastore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	d, ok := m.Documents[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	delete(m.Documents, id)
	m.mu.Unlock()

	if err := m.Save(); err != nil {
		m.mu.Lock()
		m.Documents[id] = d
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Metastore) List(_ context.Context) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Document, 0, len(m.Documents))
	for _, d := range m.sorted() {
		out = append(out, d.clone())
	}
	return out, nil
}

// Close persists the documents.
func (m *Metastore) Close() error {
	return m.Save()
}

// sorted returns documents by creation time, then name. Callers hold mu.
func (m *Metastore) sorted() []*Document {
	docs := make([]*Document, 0, len(m.Documents))
	for _, d := range m.Documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].Name < docs[j].Name
	})
	return docs
}
