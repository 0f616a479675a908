// Package memo wraps pure functions with a result cache. Func suits
// single-goroutine callers; Async adds one in-flight computation per key and
// turns failures (panics included) into errors that are never cached.
package memo

import "sync"

// Stats reports memoizer effectiveness.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

// Func memoizes a synchronous function. Results are held in an unbounded map
// until Clear; use Async with a bounded Storage when growth matters.
//
// Two concurrent first calls with the same key may both run fn; only Async
// guarantees a single in-flight computation.
type Func[A any, R any] struct {
	fn  func(A) R
	key func(A) any

	mu     sync.Mutex
	values map[any]R
	hits   uint64
	misses uint64
}

// New memoizes fn keyed by the argument value itself.
func New[A comparable, R any](fn func(A) R) *Func[A, R] {
	return &Func[A, R]{
		fn:     fn,
		key:    func(a A) any { return a },
		values: make(map[any]R),
	}
}

// NewWithKey memoizes fn with an explicit key builder. Arguments that map to
// the same key are treated as the same call.
func NewWithKey[A any, R any](fn func(A) R, key func(A) string) *Func[A, R] {
	return &Func[A, R]{
		fn:     fn,
		key:    func(a A) any { return key(a) },
		values: make(map[any]R),
	}
}

// Call returns the cached result for a, computing it on first use.
func (f *Func[A, R]) Call(a A) R {
	k := f.key(a)

	f.mu.Lock()
	if v, ok := f.values[k]; ok {
		f.hits++
		f.mu.Unlock()
		return v
	}
	f.misses++
	f.mu.Unlock()

	v := f.fn(a)

	f.mu.Lock()
	f.values[k] = v
	f.mu.Unlock()
	return v
}

// Stats returns hit/miss counts and the number of stored results.
func (f *Func[A, R]) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{Hits: f.hits, Misses: f.misses, Size: len(f.values)}
}

// Clear drops every stored result.
func (f *Func[A, R]) Clear() {
	f.mu.Lock()
	f.values = make(map[any]R)
	f.mu.Unlock()
}
