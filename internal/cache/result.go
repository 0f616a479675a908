package cache

import (
	"context"
	"time"
)

// ResultCache stores encoded score results. Implemented by the in-process
// memory tier (default) and Redis.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
