package docstore

import (
	"context"
	"sync"
)

// Memory is an in-memory Store. It is safe for concurrent use and is the
// fallback backend when no DATABASE_URL is configured, as well as the test
// double for handler and service tests.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Document)}
}

// Set merges fields into the document at path.
func (m *Memory) Set(ctx context.Context, path string, fields Document) error {
	_ = ctx
	if err := ValidatePath(path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[path]
	if !ok {
		doc = make(Document, len(fields))
		m.docs[path] = doc
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

// Get returns a copy of the document at path.
func (m *Memory) Get(ctx context.Context, path string) (Document, bool, error) {
	_ = ctx
	if err := ValidatePath(path); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[path]
	if !ok {
		return nil, false, nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, true, nil
}

// Len reports the number of stored documents. Used by tests to assert that a
// natural key appears exactly once per collection.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
