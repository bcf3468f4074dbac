package cache

import (
	"context"
	"errors"
	"fmt"
	"fuel-route-service/internal/platform/obs"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fuel:eval:"

// RedisEvaluationCache stores encoded evaluations in Redis with a fixed TTL.
type RedisEvaluationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEvaluationCache(client *redis.Client, ttl time.Duration) *RedisEvaluationCache {
	return &RedisEvaluationCache{client: client, ttl: ttl}
}

// Fetch the cached value for key. A missing key is not an error.
func (c *RedisEvaluationCache) Get(ctx context.Context, key string) (_ []byte, _ bool, err error) {
	defer obs.Time(ctx, "evaluation.cache.Get")(&err)

	if c.client == nil {
		return nil, false, errors.New("evaluation cache: client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return nil, false, errors.New("get evaluation cache: key must not be empty")
	}

	b, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get evaluation cache key=%s: %w", key, err)
	}
	return b, true, nil
}

// Store value under key, replacing any previous entry.
func (c *RedisEvaluationCache) Put(ctx context.Context, key string, value []byte) (err error) {
	defer obs.Time(ctx, "evaluation.cache.Put")(&err)

	if c.client == nil {
		return errors.New("evaluation cache: client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("put evaluation cache: key must not be empty")
	}

	if err := c.client.Set(ctx, keyPrefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("put evaluation cache key=%s: %w", key, err)
	}
	return nil
}
