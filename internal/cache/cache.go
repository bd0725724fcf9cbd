// Package cache wraps the Redis client with the small TTL-cache surface the
// rest of the application uses: JSON get/set, single-key delete, and coarse
// deletion of every key under a prefix. Cache failures are logged and
// swallowed; they must never fail the primary operation.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefixes used across the application. Writes that can change a cached
// result set clear whole prefixes instead of tracking exact dependencies.
const (
	SearchPrefix       = "services:search:"
	PopularPrefix      = "services:popular:"
	TypesPrefix        = "service-types:"
	JWTValidationKey   = "user:jwt-validation:"
	TokenValidationKey = "user:refresh-token-validation:"
)

// Cache is a nil-safe wrapper around a Redis client. A Cache built from a nil
// client (Redis unreachable at startup) turns every operation into a no-op so
// callers never need to branch on availability.
type Cache struct {
	rdb *redis.Client
}

// New returns a Cache backed by rdb. rdb may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Enabled reports whether a Redis backend is available.
func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

// GetJSON loads the value stored under key into dest. It returns false on
// miss, decode failure, or any Redis error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}
	bs, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get %s failed: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(bs, dest); err != nil {
		log.Printf("cache: decode %s failed: %v", key, err)
		return false
	}
	return true
}

// SetJSON stores v under key with the given TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	bs, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: encode %s failed: %v", key, err)
		return
	}
	if err := c.rdb.SetEx(ctx, key, bs, ttl).Err(); err != nil {
		log.Printf("cache: set %s failed: %v", key, err)
	}
}

// Delete removes the given keys. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache: delete failed: %v", err)
	}
}

// DeletePrefix removes every key under each of the given prefixes using
// SCAN+DEL. Over-deleting only costs cache hits, so prefixes are kept broad
// on purpose.
func (c *Cache) DeletePrefix(ctx context.Context, prefixes ...string) {
	if !c.Enabled() {
		return
	}
	for _, prefix := range prefixes {
		iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
		batch := make([]string, 0, 100)
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == 100 {
				if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
					log.Printf("cache: prefix delete %s failed: %v", prefix, err)
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			log.Printf("cache: scan %s failed: %v", prefix, err)
		}
		if len(batch) > 0 {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				log.Printf("cache: prefix delete %s failed: %v", prefix, err)
			}
		}
	}
}
