// Package catalogcache keeps catalog query results in Redis, keyed by the
// canonical query string, so identical searches from different sessions
// share one backend call.
package catalogcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-core/internal/catalog"
	"storefront-core/internal/model"
)

const keyPrefix = "catalog:page:"

// DefaultTTL bounds how stale a cached page may get when no catalog change
// event arrives.
const DefaultTTL = time.Minute

// Cache stores catalog pages in Redis.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func New(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{rdb: rdb, ttl: ttl, log: log}
}

func key(query string) string {
	return keyPrefix + query
}

// Get returns the cached page for query. A miss is (nil, false, nil).
func (c *Cache) Get(ctx context.Context, query string) (*model.CatalogPage, bool, error) {
	data, err := c.rdb.Get(ctx, key(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var page model.CatalogPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false, err
	}
	return &page, true, nil
}

// Put stores page under query with the cache TTL.
func (c *Cache) Put(ctx context.Context, query string, page *model.CatalogPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(query), data, c.ttl).Err()
}

// Invalidate drops every cached page and returns how many were removed.
func (c *Cache) Invalidate(ctx context.Context) (int, error) {
	var removed int
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 200).Iterator()
	batch := make([]string, 0, 200)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.rdb.Del(ctx, batch...).Result()
		removed += int(n)
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	if err := flush(); err != nil {
		return removed, err
	}
	c.log.Info("catalog cache invalidated", zap.Int("pages", removed))
	return removed, nil
}

// Fetcher serves catalog queries from the cache and falls through to
// upstream on a miss. Redis trouble never fails a fetch.
type Fetcher struct {
	cache    *Cache
	upstream catalog.Fetcher
}

func NewFetcher(cache *Cache, upstream catalog.Fetcher) *Fetcher {
	return &Fetcher{cache: cache, upstream: upstream}
}

func (f *Fetcher) FetchCatalog(ctx context.Context, query string) (*model.CatalogPage, error) {
	page, ok, err := f.cache.Get(ctx, query)
	switch {
	case err != nil:
		f.cache.log.Warn("catalog cache read failed", zap.String("query", query), zap.Error(err))
	case ok:
		f.cache.log.Debug("catalog cache hit", zap.String("query", query))
		return page, nil
	}

	page, err = f.upstream.FetchCatalog(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Put(ctx, query, page); err != nil {
		f.cache.log.Warn("catalog cache write failed", zap.String("query", query), zap.Error(err))
	}
	return page, nil
}
