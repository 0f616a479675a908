package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Names of the process-wide stores.
const (
	SajuCache          = "saju"
	DaeunCache         = "daeun"
	CompatibilityCache = "compatibility"
)

// StoreConfig sizes one named store.
type StoreConfig struct {
	MaxSize int
	TTL     time.Duration
}

// RegistryConfig is fixed at construction.
type RegistryConfig struct {
	Saju            StoreConfig
	Daeun           StoreConfig
	Compatibility   StoreConfig
	CleanupInterval time.Duration
	Clock           Clock
}

// DefaultRegistryConfig mirrors the capacities the product has always run with.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Saju:            StoreConfig{MaxSize: 500, TTL: time.Hour},
		Daeun:           StoreConfig{MaxSize: 200, TTL: 2 * time.Hour},
		Compatibility:   StoreConfig{MaxSize: 300, TTL: 30 * time.Minute},
		CleanupInterval: 5 * time.Minute,
	}
}

// Registry owns the named stores shared by a process. Values are stored as
// `any` so the registry does not depend on the packages producing them;
// typed access goes through Typed.
type Registry struct {
	cfg    RegistryConfig
	logger *zap.Logger
	stores map[string]*Store[any]
	order  []string

	mu      sync.Mutex
	started bool
}

// NewRegistry builds the stores. Nothing runs in the background until Start.
func NewRegistry(cfg RegistryConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		cfg:    cfg,
		logger: logger,
		stores: make(map[string]*Store[any]),
	}
	r.add(SajuCache, cfg.Saju)
	r.add(DaeunCache, cfg.Daeun)
	r.add(CompatibilityCache, cfg.Compatibility)
	return r
}

func (r *Registry) add(name string, sc StoreConfig) {
	r.stores[name] = New[any](Options{
		Name:    name,
		MaxSize: sc.MaxSize,
		TTL:     sc.TTL,
		Clock:   r.cfg.Clock,
		Logger:  r.logger,
	})
	r.order = append(r.order, name)
}

// Store returns the named store, or nil when the name is unknown.
func (r *Registry) Store(name string) *Store[any] {
	return r.stores[name]
}

// Start begins background expiry cleanup on every store.
func (r *Registry) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	for _, name := range r.order {
		r.stores[name].StartCleanup(r.cfg.CleanupInterval)
	}
	r.started = true
	r.logger.Info("cache_registry_started",
		zap.Strings("caches", r.order),
		zap.Duration("cleanup_interval", r.cfg.CleanupInterval),
	)
}

// Shutdown stops every cleanup goroutine and waits for them. Entries are kept.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.order {
		_ = r.stores[name].Close()
	}
	if r.started {
		r.logger.Info("cache_registry_stopped")
	}
	r.started = false
}

// Stats returns a snapshot per store, keyed by name.
func (r *Registry) Stats() map[string]Stats {
	out := make(map[string]Stats, len(r.stores))
	for name, s := range r.stores {
		out[name] = s.Stats()
	}
	return out
}

// ClearAll empties every store.
func (r *Registry) ClearAll() {
	for _, s := range r.stores {
		s.Clear()
	}
}

// Typed is a typed view over a Store[any]. A stored value of another type
// reads as a miss.
type Typed[V any] struct {
	s *Store[any]
}

// NewTyped wraps s.
func NewTyped[V any](s *Store[any]) Typed[V] {
	return Typed[V]{s: s}
}

func (t Typed[V]) Get(key string) (V, bool) {
	v, ok := t.s.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	typed, ok := v.(V)
	return typed, ok
}

func (t Typed[V]) Peek(key string) (V, bool) {
	v, ok := t.s.Peek(key)
	if !ok {
		var zero V
		return zero, false
	}
	typed, ok := v.(V)
	return typed, ok
}

func (t Typed[V]) Set(key string, value V) { t.s.Set(key, value) }

func (t Typed[V]) Delete(key string) bool { return t.s.Delete(key) }

func (t Typed[V]) Clear() { t.s.Clear() }

func (t Typed[V]) Len() int { return t.s.Len() }
