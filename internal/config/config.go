// Package config reads the storefront service settings from the
// environment, after loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process settings.
type Config struct {
	HTTPAddr        string
	StoreAPIURL     string
	StoreAPITimeout time.Duration
	RedisURL        string // empty disables the catalog cache
	CatalogCacheTTL time.Duration
	KafkaBroker     string // empty disables event publishing
	SearchDebounce  time.Duration
	SyncDebounce    time.Duration
	DefaultPageSize int
	CatalogWide     bool
	SessionIdleTTL  time.Duration // zero keeps idle sessions
	LogLevel        string
}

// Load reads the environment. Variables already set win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var errs []error
	cfg := Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		StoreAPIURL:     getenv("STORE_API_URL", "http://localhost:3000/api"),
		StoreAPITimeout: duration("STORE_API_TIMEOUT", 10*time.Second, &errs),
		RedisURL:        getenv("REDIS_URL", ""),
		CatalogCacheTTL: duration("CATALOG_CACHE_TTL", time.Minute, &errs),
		KafkaBroker:     getenv("KAFKA_BROKER", ""),
		SearchDebounce:  duration("SEARCH_DEBOUNCE", 400*time.Millisecond, &errs),
		SyncDebounce:    duration("SYNC_DEBOUNCE", 500*time.Millisecond, &errs),
		DefaultPageSize: integer("DEFAULT_PAGE_SIZE", 12, &errs),
		CatalogWide:     boolean("CATALOG_WIDE", true, &errs),
		SessionIdleTTL:  duration("SESSION_IDLE_TTL", 30*time.Minute, &errs),
		LogLevel:        getenv("LOG_LEVEL", "info"),
	}
	if cfg.DefaultPageSize < 1 || cfg.DefaultPageSize > 100 {
		errs = append(errs, fmt.Errorf("DEFAULT_PAGE_SIZE: %d out of range [1, 100]", cfg.DefaultPageSize))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func integer(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func boolean(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}
