package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openshelf/openshelf-backend/internal/observability"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

// Cache is a small JSON cache in front of expensive aggregate queries.
// Misses and a disabled cache look the same to callers: ok == false.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (ok bool)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Invalidate(ctx context.Context, keys ...string)
	Close() error
}

type cache struct {
	log *logger.Logger
	rdb *goredis.Client
}

// NewCache connects to REDIS_ADDR. When the variable is unset the returned
// cache is a no-op and every lookup misses.
func NewCache(log *logger.Logger) (Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cacheLog := log.With("client", "RedisCache")

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		cacheLog.Info("REDIS_ADDR not set, aggregate caching disabled")
		return &cache{log: cacheLog}, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &cache{log: cacheLog, rdb: rdb}, nil
}

func (c *cache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Cache read failed", "key", key, "error", err)
			observability.Current().IncCacheOp("get", "error")
			return false
		}
		observability.Current().IncCacheOp("get", "miss")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("Cache entry unreadable, dropping", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		observability.Current().IncCacheOp("get", "error")
		return false
	}
	observability.Current().IncCacheOp("get", "hit")
	return true
}

func (c *cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("Cache write skipped, marshal failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", "key", key, "error", err)
		observability.Current().IncCacheOp("set", "error")
		return
	}
	observability.Current().IncCacheOp("set", "ok")
}

func (c *cache) Invalidate(ctx context.Context, keys ...string) {
	if c.rdb == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("Cache invalidation failed", "keys", keys, "error", err)
	}
}

func (c *cache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
