package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/ridit-backend/internal/database"
)

const cachePrefix = "cache:"

// CacheService stores JSON values in Redis under "cache:<resource>:<id>".
// Without a Redis client every lookup misses and every write is dropped.
type CacheService struct{}

// Cache is shared by the geocoder and the subscription gate.
var Cache = &CacheService{}

func cacheKey(resource string, parts ...string) string {
	return cachePrefix + resource + ":" + strings.Join(parts, ":")
}

// Get decodes the cached value into dest. A miss is (false, nil).
func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	if database.RedisClient == nil {
		return false, nil
	}
	raw, err := database.RedisClient.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Unreadable entries are treated as misses and overwritten.
		return false, nil
	}
	return true, nil
}

func (c *CacheService) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	if database.RedisClient == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return database.RedisClient.Set(ctx, key, raw, ttl).Err()
}

func (c *CacheService) Invalidate(ctx context.Context, key string) error {
	if database.RedisClient == nil {
		return nil
	}
	return database.RedisClient.Del(ctx, key).Err()
}
