package cache

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// degradations counts per-call Redis failures served from the local store
var degradations = promauto.NewCounter(prometheus.CounterOpts{
	Name: "folio_cache_degradations_total",
	Help: "Total number of cache operations served from memory after a Redis failure",
})

// RedisStore serves from Redis with a per-call fallback to an embedded
// in-memory store. A failed remote call degrades that one operation and is
// logged; the client is not torn down, the next call goes to Redis again.
type RedisStore struct {
	client *redis.Client
	local  *MemoryStore
}

// NewRedisStore wraps an already-connected Redis client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		local:  NewMemoryStore(),
	}
}

// Client exposes the underlying client for components that need more than
// get/set (the job queue uses its list operations).
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Get reads from Redis first. A clean miss also consults the local store,
// since writes made while degraded only exist there.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return s.local.Get(ctx, key)
	}
	if err != nil {
		degradations.Inc()
		log.Printf("⚠️  [CACHE] Redis GET %s failed, serving from memory: %v", key, err)
		return s.local.Get(ctx, key)
	}
	return value, true
}

// Set writes to Redis, falling back to the local store for this one write on failure
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		degradations.Inc()
		log.Printf("⚠️  [CACHE] Redis SET %s failed, writing to memory: %v", key, err)
		s.local.Set(ctx, key, value, ttl)
	}
}

// Delete removes the key from both stores
func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		log.Printf("⚠️  [CACHE] Redis DEL %s failed: %v", key, err)
	}
	s.local.Delete(ctx, key)
}

// Close releases the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
