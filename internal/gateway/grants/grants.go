// Package grants records paid-tier entitlements. A grant is established
// out-of-band (the checkout/webhook flow) and consumed by tier
// resolution as a boolean lookup. The store is pluggable so the
// address-derived identity can later be swapped for durable accounts
// without touching the router.
package grants

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store is the grant lookup consumed by tier resolution.
type Store interface {
	Grant(ctx context.Context, clientKey, tierID string) error
	Has(ctx context.Context, clientKey, tierID string) bool
}

// MemoryStore keeps grants for the process lifetime. Used when no
// REDIS_URL is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	grants map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[string]struct{})}
}

func (s *MemoryStore) Grant(_ context.Context, clientKey, tierID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grantKey(clientKey, tierID)] = struct{}{}
	return nil
}

func (s *MemoryStore) Has(_ context.Context, clientKey, tierID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[grantKey(clientKey, tierID)]
	return ok
}

// RedisStore keeps grants in redis so they survive restarts and can be
// shared across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis ping failed: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client, for tests.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Grant(ctx context.Context, clientKey, tierID string) error {
	// Grants do not expire; revocation would be an administrative
	// delete of the key.
	return s.client.Set(ctx, grantKey(clientKey, tierID), "1", 0).Err()
}

func (s *RedisStore) Has(ctx context.Context, clientKey, tierID string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	n, err := s.client.Exists(ctx, grantKey(clientKey, tierID)).Result()
	return err == nil && n > 0
}

func grantKey(clientKey, tierID string) string {
	return fmt.Sprintf("grant:%s:%s", clientKey, tierID)
}
