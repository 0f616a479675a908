package cache

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestRegistryStoresAndLifecycle(t *testing.T) {
	cfg := DefaultRegistryConfig()
	cfg.CleanupInterval = 10 * time.Millisecond
	r := NewRegistry(cfg, zaptest.NewLogger(t))

	for _, name := range []string{SajuCache, DaeunCache, CompatibilityCache} {
		if r.Store(name) == nil {
			t.Fatalf("missing store %q", name)
		}
	}
	if r.Store("nope") != nil {
		t.Fatalf("unknown store should be nil")
	}

	r.Start()
	r.Start()

	NewTyped[int](r.Store(SajuCache)).Set("k", 42)
	if v, ok := NewTyped[int](r.Store(SajuCache)).Get("k"); !ok || v != 42 {
		t.Fatalf("typed get = %v %v", v, ok)
	}
	if _, ok := NewTyped[string](r.Store(SajuCache)).Get("k"); ok {
		t.Fatalf("wrong type should read as miss")
	}

	stats := r.Stats()
	if stats[SajuCache].TotalEntries != 1 || stats[SajuCache].MaxSize != 500 {
		t.Fatalf("unexpected saju stats %+v", stats[SajuCache])
	}

	r.ClearAll()
	if r.Store(SajuCache).Len() != 0 {
		t.Fatalf("ClearAll left entries")
	}

	r.Shutdown()
	r.Shutdown()
}
