// Package cache provides the redis-backed JSON cache used for the
// read-mostly place catalog responses, plus a no-op fallback for deployments
// without redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lamle62/webgis-du-lich/internal/observability"
)

// Redis is a thin JSON marshalling layer over a redis client.
// Values are stored as JSON blobs; Get unmarshals into dst.
type Redis struct {
	c *redis.Client
}

// NewRedis connects a cache to the redis instance at addr.
// The connection is lazy; the first operation dials.
func NewRedis(addr, password string, db int) *Redis {
	return &Redis{c: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})}
}

// Ping verifies the redis connection, for use at startup.
func (r *Redis) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.c.Close()
}

// Get reads key into dst, reporting whether the key existed.
func (r *Redis) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache.Redis.Get: %w", err)
	}
	observability.ObserveCache("redis", "hit")
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("cache.Redis.Get: unmarshal: %w", err)
	}
	return true, nil
}

// Set stores v under key for ttl.
func (r *Redis) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache.Redis.Set: marshal: %w", err)
	}
	observability.ObserveCache("redis", "set")
	if err := r.c.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("cache.Redis.Set: %w", err)
	}
	return nil
}

// Del removes the given keys. Missing keys are not an error.
func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	observability.ObserveCache("redis", "del")
	if err := r.c.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache.Redis.Del: %w", err)
	}
	return nil
}
