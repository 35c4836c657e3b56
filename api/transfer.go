package api

import (
	"context"
	"fmt"

	"positionsmap/metastore"
	"positionsmap/positionsmap"
	"positionsmap/segment"
)

// ExportSegment writes every document of store to a segment file at path
// packed with codec and returns how many were written. Documents stored
// with another codec are repacked.
func ExportSegment(ctx context.Context, store metastore.Store, codec *positionsmap.Codec, path string) (int, error) {
	docs, err := store.List(ctx)
	if err != nil {
		return 0, err
	}

	w, err := segment.Create(path, codec)
	if err != nil {
		return 0, err
	}
	for _, d := range docs {
		if d.Codec == codec.Name() {
			err = w.AppendPacked(d.Packed)
		} else {
			var positions []uint64
			positions, err = d.Positions()
			if err == nil {
				err = w.Add(positions)
			}
		}
		if err != nil {
			w.Close()
			return 0, fmt.Errorf("failed to export document %s: %w", d.ID, err)
		}
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return w.Count(), nil
}

// ImportSegment stores every entry of the segment file at path as a new
// document packed with codec. Entry i is named "<prefix>-<i>". Either all
// entries are stored or none are.
func ImportSegment(ctx context.Context, store metastore.Store, codec *positionsmap.Codec, path, prefix string) ([]*metastore.Document, error) {
	r, err := segment.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	entries, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	docs := make([]*metastore.Document, 0, len(entries))
	for i, packed := range entries {
		positions, err := r.Codec().Unpack(packed)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		doc, err := metastore.NewDocument(fmt.Sprintf("%s-%d", prefix, i), codec, positions)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	for i, doc := range docs {
		if err := store.Put(ctx, doc); err != nil {
			for _, stored := range docs[:i] {
				_ = store.Delete(ctx, stored.ID)
			}
			return nil, err
		}
	}
	return docs, nil
}
