package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "dashboard:version"

// Cache stores computed dashboard aggregates in Redis. A version counter
// is bumped on every write to the catalog or order data, so stale entries
// simply fall out of rotation instead of being deleted one by one.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs the dashboard cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache generation.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// INCR starts an absent key at 1, so the pre-bump generation is 0.
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}

// BuildKey derives a versioned cache key.
func (c *Cache) BuildKey(prefix string, version int64) string {
	return fmt.Sprintf("dashboard:%s:v%d", prefix, version)
}

// FetchJSON returns the cached value for key, filling it from fill on a miss.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, fill func(context.Context) (any, error)) error {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	value, err := fill(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Bump advances the cache generation, invalidating all cached aggregates.
func (c *Cache) Bump(ctx context.Context) error {
	return c.client.Incr(ctx, versionKey).Err()
}
