package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"storefront-core/internal/catalog"
	"storefront-core/internal/catalogcache"
	"storefront-core/internal/config"
	"storefront-core/internal/filter"
	"storefront-core/internal/httpapi"
	"storefront-core/internal/kstream"
	"storefront-core/internal/model"
	"storefront-core/internal/storeapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := storeapi.NewClient(cfg.StoreAPIURL, cfg.StoreAPITimeout)
	deps := httpapi.Deps{
		Fetcher: api,
		Orders:  api,
		Pricer:  api,
		Health:  api.HealthCheck,
		Catalog: catalog.Config{
			SearchDebounce: cfg.SearchDebounce,
			SyncDebounce:   cfg.SyncDebounce,
			FetchTimeout:   cfg.StoreAPITimeout,
			Codec:          filter.Codec{PageSize: cfg.DefaultPageSize, CatalogWide: cfg.CatalogWide},
		},
		SessionIdleTTL: cfg.SessionIdleTTL,
		Log:            logger,
	}

	// Redis catalog cache, optional.
	var cache *catalogcache.Cache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		cache = catalogcache.New(rdb, cfg.CatalogCacheTTL, logger.Named("catalogcache"))
		deps.Fetcher = catalogcache.NewFetcher(cache, api)
		logger.Info("catalog cache enabled", zap.Duration("ttl", cfg.CatalogCacheTTL))
	}

	// Kafka events, optional.
	if cfg.KafkaBroker != "" {
		pub := kstream.NewPublisher(cfg.KafkaBroker, logger.Named("kstream"))
		defer pub.Close()
		deps.SearchRecorder = pub
		deps.OrderRecorder = pub

		if cache != nil {
			reader := kstream.KafkaReader(cfg.KafkaBroker, kstream.TopicCatalogChanged, "storefront-bff")
			defer reader.Close()
			go func() {
				err := kstream.ConsumeCatalogChanges(ctx, reader, logger.Named("kstream"), func(ctx context.Context, evt model.CatalogChanged) error {
					_, err := cache.Invalidate(ctx)
					return err
				})
				if err != nil {
					logger.Error("catalog change consumer stopped", zap.Error(err))
				}
			}()
		}
		logger.Info("kafka events enabled", zap.String("broker", cfg.KafkaBroker))
	}

	srv := httpapi.NewServer(deps)
	defer srv.Close()
	go srv.RunReaper(ctx)

	r := mux.NewRouter()
	srv.RegisterRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
		defer done()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("storefront API listening", zap.String("addr", cfg.HTTPAddr), zap.String("store_api", cfg.StoreAPIURL))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
