package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the cache contract exposed to the rest of the application.
// Get never returns an error: callers get a value or a miss, regardless of
// whether Redis is reachable. Remote failures are absorbed and logged here.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

const (
	connectAttempts = 5 // initial attempt + 4 retries
	initialBackoff  = 500 * time.Millisecond
	maxBackoff      = 5 * time.Second
	dialTimeout     = 5 * time.Second
)

// Connect picks the cache strategy once at startup. An empty redisURL is a
// valid configuration, not an error: the process runs on the in-memory store.
// If every connection attempt fails, the process falls back to the in-memory
// store permanently. There is no background re-probing against an unreachable
// service.
func Connect(redisURL string) Store {
	if redisURL == "" {
		log.Println("⚠️  REDIS_URL not set, using in-memory cache")
		return NewMemoryStore()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("⚠️  Invalid Redis URL, using in-memory cache: %v", err)
		return NewMemoryStore()
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	backoff := initialBackoff
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		err := client.Ping(ctx).Err()
		cancel()

		if err == nil {
			log.Println("✅ Redis connection established")
			return NewRedisStore(client)
		}

		client.Close()
		log.Printf("⚠️  Redis connection attempt %d/%d failed: %v", attempt, connectAttempts, err)

		if attempt < connectAttempts {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	log.Println("⚠️  Redis unreachable, falling back to in-memory cache for the process lifetime")
	return NewMemoryStore()
}
