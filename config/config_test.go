package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, "development", cfg.Server.AppEnv)
	assert.False(t, cfg.Server.IsProduction())
	assert.Equal(t, "mongo", cfg.Store.Driver)
	assert.Equal(t, "disk", cfg.Storage.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("BASE_URL", "https://cdn.example.com/")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_LIST_TTL", "30s")
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "not-a-number")

	cfg := LoadEnv()

	assert.True(t, cfg.Server.IsProduction())
	assert.Equal(t, "https://cdn.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, 10, cfg.Postgres.MaxOpenConns)
}
