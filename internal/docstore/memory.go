package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// MemoryStore is an in-process Store used by tests and dev mode. All
// operations copy field maps, so callers never share document state.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]interface{}),
	}
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fields, ok := m.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return &Document{ID: id, Fields: copyFields(fields)}, nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]map[string]interface{})
	}
	m.collections[collection][id] = copyFields(fields)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.collections[collection][id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	for k, v := range fields {
		existing[k] = v
	}
	return nil
}

func (m *MemoryStore) UpdateIf(ctx context.Context, collection, id, field string, expect interface{}, fields map[string]interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.collections[collection][id]
	if !ok {
		return false, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if !valuesEqual(existing[field], expect) {
		return false, nil
	}
	for k, v := range fields {
		existing[k] = v
	}
	return true, nil
}

func (m *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []Document
	for id, fields := range m.collections[collection] {
		if matchesAll(fields, filters) {
			docs = append(docs, Document{ID: id, Fields: copyFields(fields)})
		}
	}
	return docs, nil
}

func matchesAll(fields map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		if !valuesEqual(fields[f.Field], f.Value) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
