// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docstore

import (
	"context"
	"sort"
	"strings"
	"time"
)

// NewMemory returns a Store that keeps documents in memory. Documents are
// stored encoded, so reads behave exactly as with NewSQLite.
func NewMemory(opts Options) *Store {
	return newStore(&memoryBackend{colls: make(map[string]map[string][]byte)}, opts)
}

type memoryBackend struct {
	colls map[string]map[string][]byte
}

func (b *memoryBackend) get(_ context.Context, collection, id string) ([]byte, bool, error) {
	data, ok := b.colls[collection][id]
	return data, ok, nil
}

func (b *memoryBackend) put(_ context.Context, collection, id string, data []byte, _ time.Time) error {
	if b.colls[collection] == nil {
		b.colls[collection] = make(map[string][]byte)
	}
	b.colls[collection][id] = data
	return nil
}

func (b *memoryBackend) delete(_ context.Context, collection, id string) error {
	delete(b.colls[collection], id)
	if len(b.colls[collection]) == 0 {
		delete(b.colls, collection)
	}
	return nil
}

func (b *memoryBackend) list(_ context.Context, collection string) ([]record, error) {
	recs := make([]record, 0, len(b.colls[collection]))
	for id, data := range b.colls[collection] {
		recs = append(recs, record{id: id, data: data})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].id < recs[j].id })
	return recs, nil
}

func inTree(collection, prefix string) bool {
	return collection == prefix || strings.HasPrefix(collection, prefix+"/")
}

func (b *memoryBackend) collections(_ context.Context, prefix string) ([]string, error) {
	var out []string
	for c := range b.colls {
		if inTree(c, prefix) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (b *memoryBackend) deleteTree(_ context.Context, prefix string) error {
	for c := range b.colls {
		if inTree(c, prefix) {
			delete(b.colls, c)
		}
	}
	return nil
}

func (b *memoryBackend) close() error { return nil }
