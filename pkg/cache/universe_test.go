package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestUniverseCache_MissThenHit(t *testing.T) {
	client := setupTestRedis(t)
	c := NewUniverseCache(client, time.Minute)
	ctx := context.Background()

	if _, err := c.Get(ctx, 100); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() on empty cache error = %v, want ErrCacheMiss", err)
	}

	if err := c.Set(ctx, 100, 777); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	universeID, err := c.Get(ctx, 100)
	if err != nil {
		t.Fatalf("Get() after Set error = %v", err)
	}
	if universeID != 777 {
		t.Errorf("universeID = %d, want 777", universeID)
	}
}

func TestUniverseCache_CorruptedEntry(t *testing.T) {
	client := setupTestRedis(t)
	c := NewUniverseCache(client, time.Minute)
	ctx := context.Background()

	if err := client.Set(ctx, cacheKey(100), "not-a-number", time.Minute).Err(); err != nil {
		t.Fatalf("seed corrupted entry: %v", err)
	}

	if _, err := c.Get(ctx, 100); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() on corrupted entry error = %v, want ErrCacheMiss", err)
	}

	// The corrupted key must be gone.
	if err := client.Get(ctx, cacheKey(100)).Err(); err != redis.Nil {
		t.Error("corrupted entry was not dropped")
	}
}

func TestNewUniverseCache_NilRedis(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewUniverseCache(nil) should panic")
		}
	}()
	NewUniverseCache(nil, time.Minute)
}
