// Package cache provides a Redis-backed TTL cache with an in-memory
// fallback, grounded on src/infrastructure/data/cache.go's
// RedisCacheManager — generalized to degrade to a sync.Map store rather than
// failing closed when Redis is unreachable or unconfigured, since this
// service treats caching purely as a fast-path, not a correctness dependency.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache stores short-lived byte payloads by key with a TTL.
type Cache struct {
	redis *redis.Client
	mem   sync.Map // key -> memEntry, used when redis is nil or errors
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// New returns a cache backed by Redis at addr. An empty addr yields a
// memory-only cache.
func New(addr, password string, db int) *Cache {
	if addr == "" {
		return &Cache{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &Cache{redis: client}
}

// Set stores value (marshaled as JSON) under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.redis != nil {
		if err := c.redis.Set(ctx, key, payload, ttl).Err(); err == nil {
			return nil
		} else {
			log.Warn().Err(err).Str("key", key).Msg("redis set failed, falling back to memory")
		}
	}
	c.mem.Store(key, memEntry{value: payload, expiresAt: time.Now().Add(ttl)})
	return nil
}

// Get unmarshals the cached value for key into out, reporting whether a live
// entry existed.
func (c *Cache) Get(ctx context.Context, key string, out interface{}) bool {
	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(raw, out) == nil
		}
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("redis get failed, checking memory fallback")
		}
	}
	v, ok := c.mem.Load(key)
	if !ok {
		return false
	}
	entry := v.(memEntry)
	if time.Now().After(entry.expiresAt) {
		c.mem.Delete(key)
		return false
	}
	return json.Unmarshal(entry.value, out) == nil
}
