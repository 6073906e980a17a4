package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by Redis with TTL-based expiry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis store from a connection URL.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Redis{client: client, ttl: DefaultTTL}, nil
}

func redisKey(fp Fingerprint) string {
	return "idem:" + fp.hash()
}

// Get returns the record for fp if present.
func (s *Redis) Get(ctx context.Context, fp Fingerprint) (Record, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(fp)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to read idempotency record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, false, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	return rec, true, nil
}

// Put stores the record for fp with the store TTL.
func (s *Redis) Put(ctx context.Context, fp Fingerprint, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency record: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(fp), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency record: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *Redis) Close() error {
	return s.client.Close()
}
