package memo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"saju-engine/internal/metrics"
)

// Storage holds completed results. *cache.Store[R] and cache.Typed[R] satisfy it.
type Storage[R any] interface {
	Get(key string) (R, bool)
	// Peek reads without counting a hit or miss.
	Peek(key string) (R, bool)
	Set(key string, value R)
	Delete(key string) bool
	Clear()
	Len() int
}

// AsyncOptions configures an Async memoizer.
type AsyncOptions[R any] struct {
	// Name labels metrics and logs.
	Name string
	// Storage defaults to an unbounded map.
	Storage Storage[R]
	Logger  *zap.Logger
}

// Async memoizes a blocking, fallible function. At most one computation per
// key is in flight; concurrent callers share its result. Failed results are
// never stored, so the next call retries.
type Async[A any, R any] struct {
	name   string
	fn     func(context.Context, A) (R, error)
	key    func(A) string
	store  Storage[R]
	group  singleflight.Group
	logger *zap.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewAsync wraps fn. key must map every distinguishing input to a distinct string.
func NewAsync[A any, R any](fn func(context.Context, A) (R, error), key func(A) string, opts AsyncOptions[R]) *Async[A, R] {
	if opts.Storage == nil {
		opts.Storage = newMapStorage[R]()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = "async"
	}
	return &Async[A, R]{
		name:   opts.Name,
		fn:     fn,
		key:    key,
		store:  opts.Storage,
		logger: opts.Logger.Named("memo").With(zap.String("memo", opts.Name)),
	}
}

// Do returns the stored result for a, or joins/starts its computation.
//
// The computation runs detached from ctx cancellation: a caller whose ctx
// ends gets ctx.Err() back, while the computation continues for the other
// waiters and its result is still stored.
func (m *Async[A, R]) Do(ctx context.Context, a A) (R, error) {
	k := m.key(a)
	if v, ok := m.store.Get(k); ok {
		m.hits.Add(1)
		return v, nil
	}
	m.misses.Add(1)

	ch := m.group.DoChan(k, func() (any, error) {
		// Another caller may have finished between our Get and joining the group.
		if v, ok := m.store.Peek(k); ok {
			return v, nil
		}
		v, err := m.call(context.WithoutCancel(ctx), a)
		if err != nil {
			metrics.MemoComputationsTotal.WithLabelValues(m.name, "error").Inc()
			m.store.Delete(k)
			m.logger.Warn("memo_compute_failed", zap.String("key", k), zap.Error(err))
			return v, err
		}
		metrics.MemoComputationsTotal.WithLabelValues(m.name, "ok").Inc()
		m.store.Set(k, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero R
			return zero, res.Err
		}
		v, _ := res.Val.(R)
		return v, nil
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// call runs fn, turning a panic into an error so it cannot escape the
// singleflight goroutine.
func (m *Async[A, R]) call(ctx context.Context, a A) (v R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("memo: computation panicked: %v", rec)
		}
	}()
	return m.fn(ctx, a)
}

// Forget drops the stored result for a. A computation already in flight
// still completes and stores its result.
func (m *Async[A, R]) Forget(a A) {
	k := m.key(a)
	m.store.Delete(k)
	m.group.Forget(k)
}

// Clear drops every stored result.
func (m *Async[A, R]) Clear() {
	m.store.Clear()
}

// Stats reports lookups against storage; a caller that joins an in-flight
// computation counts as a miss.
func (m *Async[A, R]) Stats() Stats {
	return Stats{
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
		Size:   m.store.Len(),
	}
}

type mapStorage[R any] struct {
	mu sync.RWMutex
	m  map[string]R
}

func newMapStorage[R any]() *mapStorage[R] {
	return &mapStorage[R]{m: make(map[string]R)}
}

func (s *mapStorage[R]) Get(key string) (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *mapStorage[R]) Peek(key string) (R, bool) { return s.Get(key) }

func (s *mapStorage[R]) Set(key string, value R) {
	s.mu.Lock()
	s.m[key] = value
	s.mu.Unlock()
}

func (s *mapStorage[R]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[key]
	delete(s.m, key)
	return ok
}

func (s *mapStorage[R]) Clear() {
	s.mu.Lock()
	s.m = make(map[string]R)
	s.mu.Unlock()
}

func (s *mapStorage[R]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
