package keystore

import (
	"context"
	"crypto/ecdsa"
	"sync"

	"github.com/voyapay/voyapay/internal/biometric"
)

type memoryEntry struct {
	key        *ecdsa.PrivateKey
	enrollment string
}

// Memory is an in-process Store for development and tests.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]memoryEntry
}

// NewMemory creates an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{keys: make(map[string]memoryEntry)}
}

// Generate creates a key under alias.
func (m *Memory) Generate(ctx context.Context, alias, enrollment string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.keys[alias]; ok {
		return "", ErrAliasExists
	}
	key, err := generateKey()
	if err != nil {
		return "", err
	}
	pub, err := encodePublicKey(key)
	if err != nil {
		return "", err
	}
	m.keys[alias] = memoryEntry{key: key, enrollment: enrollment}
	return pub, nil
}

// Contains reports whether a key exists under alias.
func (m *Memory) Contains(ctx context.Context, alias string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[alias]
	return ok, nil
}

// Enrollment returns the enrollment tag the alias was created under.
func (m *Memory) Enrollment(ctx context.Context, alias string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.keys[alias]
	if !ok {
		return "", ErrNotFound
	}
	return entry.enrollment, nil
}

// Sign consumes the grant and signs data with the alias's key.
func (m *Memory) Sign(ctx context.Context, alias string, data []byte, grant *biometric.Grant) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.keys[alias]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !grant.Consume(alias) {
		return nil, ErrGrantRequired
	}
	return signData(entry.key, data)
}

// Delete removes the key under alias.
func (m *Memory) Delete(ctx context.Context, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, alias)
	return nil
}
