package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and dry runs.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]map[string]any)}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Exists(_ context.Context, collection, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.docs[collection][id]
	return ok, nil
}

func (m *MemoryStore) Get(_ context.Context, collection, id string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) UpsertMerge(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]map[string]any)
	}
	doc := m.docs[collection][id]
	if doc == nil {
		doc = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		doc[k] = v
	}
	m.docs[collection][id] = doc
	return nil
}

func (m *MemoryStore) List(_ context.Context, collection string, q Query) ([]map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []map[string]any
	for _, doc := range m.docs[collection] {
		if !matches(doc, q) {
			continue
		}
		copied := make(map[string]any, len(doc))
		for k, v := range doc {
			copied[k] = v
		}
		out = append(out, copied)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}
