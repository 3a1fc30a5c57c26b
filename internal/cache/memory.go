package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is the process-local fallback cache. go-cache gives both lazy
// expiry on read and a janitor sweep that purges expired entries, so memory
// stays bounded independent of read traffic.
type MemoryStore struct {
	cache *gocache.Cache
	mu    sync.RWMutex
}

// NewMemoryStore creates an in-memory TTL cache with a 1-minute janitor sweep
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, time.Minute),
	}
}

// Get returns the cached value, or a miss once the entry's TTL has elapsed
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, found := s.cache.Get(key)
	if !found {
		return "", false
	}

	str, ok := value.(string)
	if !ok {
		return "", false
	}

	return str, true
}

// Set stores a value with the given TTL
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(key, value, ttl)
}

// Delete removes a key
func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(key)
}
