package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and sizes the result tier.
type Config struct {
	Backend         string
	TTL             time.Duration
	MaxSize         int
	Prefix          string
	CleanupInterval time.Duration
}

// NewResultCache picks the backend. A redis backend without a client falls
// back to memory so a missing address never disables caching.
func NewResultCache(cfg Config, redisClient *redis.Client, logger *zap.Logger) ResultCache {
	switch {
	case cfg.Backend == BackendRedis && redisClient != nil:
		return NewRedisResultCache(redisClient, RedisConfig{
			Prefix: cfg.Prefix,
		})
	default:
		if cfg.Backend == BackendRedis && logger != nil {
			logger.Warn("result_cache_fallback", zap.String("reason", "no redis client"))
		}
		return NewMemoryResultCache(Options{
			Name:    "result",
			MaxSize: cfg.MaxSize,
			TTL:     cfg.TTL,
			Logger:  logger,
		}, cfg.CleanupInterval)
	}
}
