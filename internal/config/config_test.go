package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, CacheNone, cfg.CacheDriver)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.TradeRetries)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.ShouldSeedDefault())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/trades")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("RATE_LIMIT", "100ms")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 100*time.Millisecond, cfg.RateLimit)
	assert.False(t, cfg.ShouldSeedDefault())

	t.Setenv("SEED_DEFAULT", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.ShouldSeedDefault())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:7000\nGRPC_ADDR=:7001\n"), 0o600))
	t.Setenv("GRPC_ADDR", ":9999")
	t.Cleanup(func() { os.Unsetenv("HTTP_ADDR") })

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, ":9999", cfg.GRPCAddr)
}

func TestValidate(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"unknown store":         {"STORE_DRIVER": "mongo"},
		"postgres without url":  {"STORE_DRIVER": "postgres"},
		"unknown cache":         {"CACHE_DRIVER": "memcached"},
		"zero cache ttl":        {"CACHE_DRIVER": "memory", "CACHE_TTL": "0s"},
		"bad log level":         {"LOG_LEVEL": "loud"},
		"bad log format":        {"LOG_FORMAT": "xml"},
		"negative retries":      {"TRADE_RETRIES": "-1"},
		"seed default not bool": {"SEED_DEFAULT": "maybe"},
	} {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	_, err := Load()
	assert.Error(t, err)
}
