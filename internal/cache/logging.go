package cache

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"saju-engine/internal/metrics"
	"saju-engine/pkg/logging"
)

// LoggingResultCache wraps a ResultCache with logging + metrics.
type LoggingResultCache struct {
	inner ResultCache
}

// NewLoggingResultCache returns a cache that logs and records metrics.
func NewLoggingResultCache(inner ResultCache) ResultCache {
	return &LoggingResultCache{inner: inner}
}

func (c *LoggingResultCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := c.inner.Get(ctx, key)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	result := "miss"
	if err != nil {
		result = "error"
	} else if ok {
		result = "hit"
		metrics.ResultCacheHitsTotal.Inc()
	}

	fields := append(keyFields(key),
		zap.String("cache_result", result), // hit | miss | error
		zap.Float64("latency_ms", latencyMs),
	)

	logger := logging.L(ctx)
	if err != nil {
		logger.Error("result_cache_get", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("result_cache_get", fields...)
	}

	return value, ok, err
}

func (c *LoggingResultCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.inner.Set(ctx, key, value, ttl)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	fields := append(keyFields(key),
		zap.Int("bytes", len(value)),
		zap.Duration("ttl", ttl),
		zap.Float64("latency_ms", latencyMs),
	)

	logger := logging.L(ctx)
	if err != nil {
		logger.Error("result_cache_set", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("result_cache_set", fields...)
	}

	return err
}

func keyFields(key string) []zap.Field {
	fields := []zap.Field{
		zap.String("cache_tier", "result"),
		zap.String("cache_key", key),
	}
	if k, ok := ParseScoreKey(key); ok {
		fields = append(fields,
			zap.String("params_revision", strconv.FormatUint(k.Revision, 10)),
			zap.String("transit", k.Transit),
			zap.String("target", k.Target),
			zap.String("subject", k.Subject),
		)
	}
	return fields
}

// Unwrap returns the decorated cache.
func (c *LoggingResultCache) Unwrap() ResultCache { return c.inner }
