package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores cache entries in Redis; eviction is left to the
// server's own maxmemory policy.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ctx: ctx}, nil
}

func (c *RedisCache) Contains(key string) bool {
	count, err := c.client.Exists(c.ctx, key).Result()
	return err == nil && count > 0
}

func (c *RedisCache) Get(key string) ([]byte, bool) {
	val, err := c.client.Get(c.ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *RedisCache) Set(key string, value []byte) {
	c.client.Set(c.ctx, key, value, 0)
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
