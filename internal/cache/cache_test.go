package cache

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fekuna/omnipos-catalog-service/internal/logger"
)

func TestKeyIsCanonical(t *testing.T) {
	a, err := url.ParseQuery("page=2&limit=5&sort=-price")
	require.NoError(t, err)
	b, err := url.ParseQuery("sort=-price&limit=5&page=2")
	require.NoError(t, err)

	assert.Equal(t, Key("products", 0, a), Key("products", 0, b))
	assert.NotEqual(t, Key("products", 0, a), Key("categories", 0, a))
	assert.NotEqual(t, Key("products", 0, a), Key("products", 1, a))
	assert.NotEqual(t, Key("subcategories", 0, a, "category=1"), Key("subcategories", 0, a, "category=2"))
	assert.Regexp(t, `^catalog:products:list:v3:[0-9a-f]{32}$`, Key("products", 3, a))
	assert.Regexp(t, `^`+pattern("products")[:len(pattern("products"))-1], Key("products", 3, a))
	assert.NotRegexp(t, `^catalog:products:list:`, versionKey("products"))
}

func TestRedisFailuresAreMisses(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisListCache(client, time.Minute, logger.FromZap(zap.New(core)))
	ctx := context.Background()

	_, ok := c.Version(ctx, "products")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	c.Set(ctx, "k", []byte("v"))
	c.Invalidate(ctx, "products")

	// version, get, set, then the version bump and the scan
	assert.Equal(t, 5, logs.Len())
}
