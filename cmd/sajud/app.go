package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"saju-engine/internal/cache"
	"saju-engine/internal/chart"
	"saju-engine/internal/config"
	"saju-engine/internal/service"
)

// app is the wired object graph shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *cache.Registry
	results  cache.ResultCache
	svc      *service.Service

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.Cache.Result.Backend == cache.BackendRedis {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Cache.Result.RedisAddr})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.Cache.Result.RedisAddr, err)
		}
		a.closers = append(a.closers, redisClient.Close)
		logger.Info("redis_connected", zap.String("addr", cfg.Cache.Result.RedisAddr))
	}

	// ----- Caches -----
	a.registry = cache.NewRegistry(cfg.Registry(), logger)
	results := cache.NewResultCache(cfg.ResultCache(), redisClient, logger)
	if c, ok := results.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}
	a.results = cache.NewLoggingResultCache(results)

	// ----- Chart provider -----
	var provider chart.Provider
	switch cfg.Chart.Provider {
	case config.ProviderRemote:
		remote, err := chart.NewRemote(cfg.Remote(), logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, remote.Close)
		provider = remote
	default:
		provider = chart.NewLocal()
	}

	svc, err := service.New(service.Deps{
		Provider:  provider,
		Registry:  a.registry,
		Results:   a.results,
		ResultTTL: cfg.Cache.Result.TTL,
		Params:    cfg.Scoring,
		Batch:     cfg.BatchOptions(),
		Logger:    logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.svc = svc
	// the batch processor must drain before the provider and caches go away
	a.closers = append([]func() error{svc.Close}, a.closers...)
	return a, nil
}

// Close releases resources in dependency order.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.registry != nil {
		a.registry.Shutdown()
	}
	return errors.Join(errs...)
}
