package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Set(ctx, "greeting", "hello", time.Minute)

	value, found := store.Get(ctx, "greeting")
	if !found {
		t.Fatal("expected cache hit for key set moments ago")
	}
	if value != "hello" {
		t.Errorf("expected %q, got %q", "hello", value)
	}

	if _, found := store.Get(ctx, "missing"); found {
		t.Error("expected miss for a key that was never set")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Set(ctx, "ephemeral", "value", 100*time.Millisecond)

	if _, found := store.Get(ctx, "ephemeral"); !found {
		t.Fatal("expected hit before TTL elapsed")
	}

	time.Sleep(150 * time.Millisecond)

	if _, found := store.Get(ctx, "ephemeral"); found {
		t.Error("expected miss after TTL elapsed")
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Set(ctx, "key", "value", time.Minute)
	store.Delete(ctx, "key")

	if _, found := store.Get(ctx, "key"); found {
		t.Error("expected miss after Delete")
	}

	// Deleting an absent key must be a no-op
	store.Delete(ctx, "never-set")
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Set(ctx, "key", "first", time.Minute)
	store.Set(ctx, "key", "second", time.Minute)

	value, found := store.Get(ctx, "key")
	if !found || value != "second" {
		t.Errorf("expected overwritten value %q, got %q (found=%v)", "second", value, found)
	}
}

func TestConnectWithoutURL(t *testing.T) {
	store := Connect("")

	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected in-memory store when no Redis URL is configured, got %T", store)
	}

	// The fallback store must be fully usable
	ctx := context.Background()
	store.Set(ctx, "key", "value", time.Minute)
	if value, found := store.Get(ctx, "key"); !found || value != "value" {
		t.Errorf("fallback store not usable: got %q (found=%v)", value, found)
	}
}

func TestConnectInvalidURL(t *testing.T) {
	store := Connect("not-a-redis-url")

	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected in-memory store for an unparseable Redis URL, got %T", store)
	}
}
