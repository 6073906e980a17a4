package idempotency

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory Store. It is safe for concurrent use and is the
// fallback backend when no REDIS_URL is configured.
type Memory struct {
	mu  sync.RWMutex
	m   map[string]Record
	ttl time.Duration
	now func() time.Time
}

// NewMemory creates an empty in-memory store with the default TTL.
func NewMemory() *Memory {
	return &Memory{
		m:   make(map[string]Record),
		ttl: DefaultTTL,
		now: time.Now,
	}
}

// Get returns the record for fp if present and not expired.
func (s *Memory) Get(ctx context.Context, fp Fingerprint) (Record, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.m[fp.hash()]
	if !ok {
		return Record{}, false, nil
	}
	if s.now().Sub(rec.CreatedAt) > s.ttl {
		return Record{}, false, nil
	}
	return rec, true, nil
}

// Put stores the record for fp.
func (s *Memory) Put(ctx context.Context, fp Fingerprint, rec Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[fp.hash()] = rec
	return nil
}
