package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// Cache stores JSON documents by key. Implementations are best effort: a failed
// read is a miss and a failed write is logged and dropped.
type Cache interface {
	GetJSON(ctx context.Context, key string, out interface{}) bool
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	rc *redis.Client
}

// NewCache returns a Redis backed cache, or a no-op cache when rc is nil.
func NewCache(rc *redis.Client) Cache {
	if rc == nil {
		return NopCache{}
	}
	return &RedisCache{rc: rc}
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, out interface{}) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if Sugar != nil {
			Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		}
		return false
	}
	return json.Unmarshal(b, out) == nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, ttl).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// Delete removes keys in one round trip.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.rc.Del(ctx, keys...).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("cache delete failed keys=%v err=%v", keys, err)
	}
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) GetJSON(context.Context, string, interface{}) bool { return false }

func (NopCache) SetJSON(context.Context, string, interface{}, time.Duration) {}

func (NopCache) Delete(context.Context, ...string) {}
