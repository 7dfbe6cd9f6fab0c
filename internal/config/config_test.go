package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"HTTP_ADDR", "STORE_API_URL", "STORE_API_TIMEOUT", "REDIS_URL", "CATALOG_CACHE_TTL",
	"KAFKA_BROKER", "SEARCH_DEBOUNCE", "SYNC_DEBOUNCE", "DEFAULT_PAGE_SIZE", "CATALOG_WIDE", "SESSION_IDLE_TTL", "LOG_LEVEL",
}

// clearEnv blanks every key for the test; getenv treats empty as unset.
func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.StoreAPITimeout)
	assert.Equal(t, 400*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 500*time.Millisecond, cfg.SyncDebounce)
	assert.Equal(t, 12, cfg.DefaultPageSize)
	assert.True(t, cfg.CatalogWide)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.KafkaBroker)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SEARCH_DEBOUNCE", "250ms")
	t.Setenv("DEFAULT_PAGE_SIZE", "24")
	t.Setenv("CATALOG_WIDE", "false")
	t.Setenv("KAFKA_BROKER", "kafka:9092")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 24, cfg.DefaultPageSize)
	assert.False(t, cfg.CatalogWide)
	assert.Equal(t, "kafka:9092", cfg.KafkaBroker)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("REDIS_URL=redis://cache:6379/1\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")
	// t.Setenv restores the original value; unset so the file can supply it
	os.Unsetenv("REDIS_URL")

	cfg, err := Load(envFile)

	require.NoError(t, err)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYNC_DEBOUNCE", "soon")
	t.Setenv("DEFAULT_PAGE_SIZE", "500")
	t.Setenv("CATALOG_WIDE", "maybe")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYNC_DEBOUNCE")
	assert.Contains(t, err.Error(), "DEFAULT_PAGE_SIZE")
	assert.Contains(t, err.Error(), "CATALOG_WIDE")
}
