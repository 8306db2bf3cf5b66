package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps the redis client used for the rate limiter and the BGG response
// cache.
type Cache struct {
	Client *redis.Client
}

func New(addr, pass string, db int) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr, Password: pass, DB: db,
	})
	return &Cache{Client: rdb}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.Client.Close()
}

// Get decodes the JSON value at key into dest. A missing key is (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, b, ttl).Err()
}

// AllowRequest is a fixed window counter per key. Redis errors fail open: the
// request is allowed and the error is returned for the caller to report.
func (c *Cache) AllowRequest(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := "ratelimit:" + key
	count, err := c.Client.Incr(ctx, k).Result()
	if err != nil {
		return true, fmt.Errorf("redis: rate limit incr: %w", err)
	}
	if count == 1 {
		_ = c.Client.Expire(ctx, k, window).Err()
	}
	return count <= int64(limit), nil
}
