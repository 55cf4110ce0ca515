package cache

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-catalog-service/config"
	"github.com/fekuna/omnipos-catalog-service/internal/logger"
)

const keyPrefix = "catalog"

// ListCache stores rendered list responses per resource. Failures are
// logged and treated as misses.
//
// Every invalidation bumps the resource version. Keys embed the version read
// before the store query, so a page rendered across an invalidation lands
// under a key no later request asks for.
type ListCache interface {
	Version(ctx context.Context, resource string) (int64, bool)
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Invalidate(ctx context.Context, resources ...string)
}

// Key builds a stable key from the resource version, its query and any route scope.
func Key(resource string, version int64, params url.Values, scope ...string) string {
	sorted := append([]string(nil), scope...)
	sort.Strings(sorted)
	raw := params.Encode() + "|" + strings.Join(sorted, "&")
	return fmt.Sprintf("%s:%s:list:v%d:%x", keyPrefix, resource, version, md5.Sum([]byte(raw)))
}

func pattern(resource string) string {
	return fmt.Sprintf("%s:%s:list:*", keyPrefix, resource)
}

func versionKey(resource string) string {
	return fmt.Sprintf("%s:%s:version", keyPrefix, resource)
}

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

type RedisListCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger logger.ZapLogger
}

func NewRedisListCache(client redis.UniversalClient, ttl time.Duration, log logger.ZapLogger) *RedisListCache {
	return &RedisListCache{client: client, ttl: ttl, logger: log}
}

// Version is false when it cannot be read; the caller then skips the cache.
func (c *RedisListCache) Version(ctx context.Context, resource string) (int64, bool) {
	v, err := c.client.Get(ctx, versionKey(resource)).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		c.logger.Warn("cache version failed", zap.String("resource", resource), zap.Error(err))
		return 0, false
	}
	return v, true
}

func (c *RedisListCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return val, true
}

func (c *RedisListCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisListCache) Invalidate(ctx context.Context, resources ...string) {
	for _, resource := range resources {
		if err := c.client.Incr(ctx, versionKey(resource)).Err(); err != nil {
			c.logger.Warn("cache version bump failed", zap.String("resource", resource), zap.Error(err))
		}

		// old pages are unreachable after the bump; drop them instead of waiting for the ttl
		iter := c.client.Scan(ctx, 0, pattern(resource), 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.logger.Warn("cache scan failed", zap.String("resource", resource), zap.Error(err))
			continue
		}
		if len(keys) == 0 {
			continue
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn("cache invalidate failed", zap.String("resource", resource), zap.Error(err))
		}
	}
}
