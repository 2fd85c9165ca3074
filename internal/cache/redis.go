package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"claimcheck/internal/model"
)

// RedisCache implements shared caching of verdict bundles in Redis, letting
// multiple claimcheck processes reuse each other's results. Any transport
// failure degrades to a miss so the pipeline never blocks on the cache.
type RedisCache struct {
	client  *redis.Client
	timeout time.Duration
	ttl     time.Duration
}

// NewRedisCache creates a new Redis-backed cache
func NewRedisCache(cfg model.RedisConfig, ttl time.Duration) *RedisCache {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}

	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		timeout: 3 * time.Second,
		ttl:     ttl,
	}
}

// Get retrieves a value from Redis. Expiry is handled server-side via TTL.
func (c *RedisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a value in Redis with the given TTL
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a value from Redis
func (c *RedisCache) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return c.client.Del(ctx, key).Err()
}

// Clear removes all claimcheck keys. Scoped to our key prefix so a shared
// Redis instance is not flushed wholesale.
func (c *RedisCache) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	iter := c.client.Scan(ctx, 0, "claimcheck:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
