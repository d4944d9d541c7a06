package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"talent-match-platform/internal/logger"

	"github.com/redis/go-redis/v9"
)

// VectorCache is the content-addressed embedding cache contract. A miss
// means "not yet computed", never an error. Entries are immutable once
// written (same key implies same value), so concurrent redundant writes
// of the same key are harmless.
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Put(ctx context.Context, key string, vec []float32, ttl time.Duration) error
}

// RedisVectorCache caches embeddings in Redis, keyed by the content hash
// of the normalized text.
type RedisVectorCache struct {
	rdb *redis.Client
}

func NewRedisVectorCache(rdb *redis.Client) *RedisVectorCache {
	return &RedisVectorCache{rdb: rdb}
}

func cacheKey(key string) string {
	return "embedding:" + key
}

func (c *RedisVectorCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache read failed: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		// A corrupt entry is treated as a miss; the content-addressed
		// write path will overwrite it with the correct value.
		logger.Warn("Discarding corrupt cache entry", "key", key, "error", err)
		return nil, false, nil
	}
	return vec, true, nil
}

func (c *RedisVectorCache) Put(ctx context.Context, key string, vec []float32, ttl time.Duration) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("cache encode failed: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}
