// Package cache provides an optional Redis-backed cache for place-to-universe
// resolution. The mapping is immutable on the platform side, so entries only
// expire to bound key growth, never to refresh.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss indicates the requested place id was not found in cache.
var ErrCacheMiss = errors.New("cache miss")

// Prometheus metrics for universe cache operations.
var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "universe_cache_hits_total",
		Help: "Universe resolution cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "universe_cache_misses_total",
		Help: "Universe resolution cache misses",
	})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "universe_cache_errors_total",
		Help: "Universe cache operation errors",
	}, []string{"operation"})
)

// DefaultTTL bounds key growth; the mapping itself never changes.
const DefaultTTL = 24 * time.Hour

// UniverseCache caches placeID -> universeID lookups in Redis.
type UniverseCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewUniverseCache creates a cache backed by the given Redis client.
func NewUniverseCache(redisClient *redis.Client, ttl time.Duration) *UniverseCache {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &UniverseCache{
		redis: redisClient,
		ttl:   ttl,
	}
}

func cacheKey(placeID int64) string {
	return fmt.Sprintf("universe:place:%d", placeID)
}

// Get returns the cached universe id for a place.
// Returns ErrCacheMiss if the place has not been resolved before.
func (c *UniverseCache) Get(ctx context.Context, placeID int64) (int64, error) {
	val, err := c.redis.Get(ctx, cacheKey(placeID)).Result()
	if err != nil {
		if err == redis.Nil {
			cacheMisses.Inc()
			return 0, ErrCacheMiss
		}
		cacheErrors.WithLabelValues("get").Inc()
		return 0, fmt.Errorf("redis get: %w", err)
	}

	universeID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		// Corrupted entry, drop it
		_ = c.redis.Del(ctx, cacheKey(placeID)).Err()
		return 0, ErrCacheMiss
	}

	cacheHits.Inc()
	return universeID, nil
}

// Set stores a resolved universe id for a place.
func (c *UniverseCache) Set(ctx context.Context, placeID, universeID int64) error {
	err := c.redis.Set(ctx, cacheKey(placeID), strconv.FormatInt(universeID, 10), c.ttl).Err()
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
