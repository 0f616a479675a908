package cache

import (
	"container/list"
	"sync"
	"time"

	"go.uber.org/zap"

	"saju-engine/internal/metrics"
)

// Clock returns the current time. Injected so expiry can be tested without sleeping.
type Clock func() time.Time

// EvictReason labels why an entry left the store.
type EvictReason string

const (
	EvictCapacity EvictReason = "capacity"
	EvictExpired  EvictReason = "expired"
)

// DefaultMaxSize is used when Options.MaxSize is not positive.
const DefaultMaxSize = 1000

// Options configures a Store. MaxSize and TTL are fixed for the life of the store.
type Options struct {
	// Name labels metrics and logs.
	Name string
	// MaxSize is the entry capacity; the least recently used entry is evicted on overflow.
	MaxSize int
	// TTL applies uniformly to all entries. Zero or negative disables expiry.
	TTL    time.Duration
	Clock  Clock
	Logger *zap.Logger
}

type entry[V any] struct {
	key          string
	value        V
	storedAt     time.Time
	expiresAt    time.Time
	lastAccessed time.Time
}

// Store is a fixed-capacity key/value container with strict LRU eviction and
// per-entry TTL. All methods are safe for concurrent use; one mutex serialises
// every operation so recency order follows call order exactly.
type Store[V any] struct {
	name    string
	maxSize int
	ttl     time.Duration
	now     Clock
	logger  *zap.Logger

	mu          sync.Mutex
	items       map[string]*list.Element
	order       *list.List // front = most recently used
	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64

	cleanupMu   sync.Mutex
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// New creates an empty store. Background cleanup is not started; call StartCleanup.
func New[V any](opts Options) *Store[V] {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = "default"
	}
	return &Store[V]{
		name:    opts.Name,
		maxSize: opts.MaxSize,
		ttl:     opts.TTL,
		now:     opts.Clock,
		logger:  opts.Logger.Named("cache").With(zap.String("cache_name", opts.Name)),
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Name returns the label the store was built with.
func (s *Store[V]) Name() string { return s.name }

func (s *Store[V]) expired(e *entry[V], now time.Time) bool {
	return s.ttl > 0 && now.After(e.expiresAt)
}

// Set inserts or replaces key. Replacing refreshes the entry's TTL. Inserting
// a new key into a full store first evicts the least recently used entry.
func (s *Store[V]) Set(key string, value V) {
	now := s.now()

	s.mu.Lock()
	if el, ok := s.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.storedAt = now
		e.expiresAt = now.Add(s.ttl)
		e.lastAccessed = now
		s.order.MoveToFront(el)
		s.mu.Unlock()
		return
	}

	var evicted string
	if s.order.Len() >= s.maxSize {
		if back := s.order.Back(); back != nil {
			evicted = back.Value.(*entry[V]).key
			s.removeElement(back)
			s.evictions++
		}
	}

	s.items[key] = s.order.PushFront(&entry[V]{
		key:          key,
		value:        value,
		storedAt:     now,
		expiresAt:    now.Add(s.ttl),
		lastAccessed: now,
	})
	size := s.order.Len()
	s.mu.Unlock()

	if evicted != "" {
		metrics.CacheEvictionsTotal.WithLabelValues(s.name, string(EvictCapacity)).Inc()
		s.logger.Debug("cache_evict",
			zap.String("key", evicted),
			zap.String("reason", string(EvictCapacity)),
		)
	}
	metrics.CacheEntries.WithLabelValues(s.name).Set(float64(size))
}

// Get returns the value for key. A hit moves the entry to the most recently
// used position. An expired entry counts as a miss and is removed.
func (s *Store[V]) Get(key string) (V, bool) {
	now := s.now()

	s.mu.Lock()
	el, ok := s.items[key]
	if !ok {
		s.misses++
		s.mu.Unlock()
		metrics.CacheRequestsTotal.WithLabelValues(s.name, "miss").Inc()
		var zero V
		return zero, false
	}

	e := el.Value.(*entry[V])
	if s.expired(e, now) {
		s.removeElement(el)
		s.misses++
		s.expirations++
		size := s.order.Len()
		s.mu.Unlock()

		metrics.CacheRequestsTotal.WithLabelValues(s.name, "miss").Inc()
		metrics.CacheEvictionsTotal.WithLabelValues(s.name, string(EvictExpired)).Inc()
		metrics.CacheEntries.WithLabelValues(s.name).Set(float64(size))
		var zero V
		return zero, false
	}

	e.lastAccessed = now
	s.order.MoveToFront(el)
	s.hits++
	value := e.value
	s.mu.Unlock()

	metrics.CacheRequestsTotal.WithLabelValues(s.name, "hit").Inc()
	return value, true
}

// Has reports whether key holds an unexpired entry. It does not touch
// recency or the hit/miss counters.
func (s *Store[V]) Has(key string) bool {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[key]
	return ok && !s.expired(el.Value.(*entry[V]), now)
}

// Peek returns the value for an unexpired key without touching recency or
// the hit/miss counters.
func (s *Store[V]) Peek(key string) (V, bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		if e := el.Value.(*entry[V]); !s.expired(e, now) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Delete removes key and reports whether it was present.
func (s *Store[V]) Delete(key string) bool {
	s.mu.Lock()
	el, ok := s.items[key]
	if ok {
		s.removeElement(el)
	}
	size := s.order.Len()
	s.mu.Unlock()

	if ok {
		metrics.CacheEntries.WithLabelValues(s.name).Set(float64(size))
	}
	return ok
}

// Clear drops every entry and resets the counters.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	s.items = make(map[string]*list.Element)
	s.order = list.New()
	s.hits, s.misses, s.evictions, s.expirations = 0, 0, 0, 0
	s.mu.Unlock()

	metrics.CacheEntries.WithLabelValues(s.name).Set(0)
}

// Len returns the number of stored entries, including expired ones not yet removed.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Keys returns stored keys from most to least recently used.
func (s *Store[V]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[V]).key)
	}
	return keys
}

// CleanupExpired removes every expired entry and returns how many were
// removed. Unexpired entries are never touched, whatever the capacity pressure.
func (s *Store[V]) CleanupExpired() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()

	s.mu.Lock()
	removed := 0
	for el := s.order.Back(); el != nil; {
		prev := el.Prev()
		if s.expired(el.Value.(*entry[V]), now) {
			s.removeElement(el)
			removed++
		}
		el = prev
	}
	s.expirations += uint64(removed)
	size := s.order.Len()
	s.mu.Unlock()

	if removed > 0 {
		metrics.CacheEvictionsTotal.WithLabelValues(s.name, string(EvictExpired)).Add(float64(removed))
		metrics.CacheEntries.WithLabelValues(s.name).Set(float64(size))
		s.logger.Debug("cache_cleanup",
			zap.Int("removed", removed),
			zap.Int("remaining", size),
		)
	}
	return removed
}

// Stats is a point-in-time snapshot of a store.
type Stats struct {
	Name         string  `json:"name"`
	TotalEntries int     `json:"total_entries"`
	MaxSize      int     `json:"max_size"`
	HitCount     uint64  `json:"hit_count"`
	MissCount    uint64  `json:"miss_count"`
	HitRate      float64 `json:"hit_rate"`
	Evictions    uint64  `json:"evictions"`
	Expirations  uint64  `json:"expirations"`
}

// Stats recomputes the derived hit rate on every call.
func (s *Store[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Name:         s.name,
		TotalEntries: s.order.Len(),
		MaxSize:      s.maxSize,
		HitCount:     s.hits,
		MissCount:    s.misses,
		HitRate:      HitRate(s.hits, s.misses),
		Evictions:    s.evictions,
		Expirations:  s.expirations,
	}
}

// HitRate is hits/(hits+misses), and 0 when nothing was looked up.
func HitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// removeElement must be called with mu held.
func (s *Store[V]) removeElement(el *list.Element) {
	s.order.Remove(el)
	delete(s.items, el.Value.(*entry[V]).key)
}

// StartCleanup runs CleanupExpired every interval until Close is called.
// Calling it while cleanup is already running is a no-op.
func (s *Store[V]) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()
	if s.stopCleanup != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stopCleanup, s.cleanupDone = stop, done

	go s.cleanupLoop(interval, stop, done)
}

func (s *Store[V]) cleanupLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanupExpired()
		case <-stop:
			return
		}
	}
}

// Close stops the cleanup goroutine and waits for it to exit. Entries are
// kept. Safe to call repeatedly and without StartCleanup.
func (s *Store[V]) Close() error {
	s.cleanupMu.Lock()
	stop, done := s.stopCleanup, s.cleanupDone
	s.stopCleanup, s.cleanupDone = nil, nil
	s.cleanupMu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}
