package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counter: cache lookups per named store, split by hit/miss.
	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saju_cache_requests_total",
			Help: "Cache store lookups by cache name and result.",
		},
		[]string{"cache", "result"},
	)

	// Counter: entries removed for capacity (LRU) or expiry.
	CacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saju_cache_evictions_total",
			Help: "Cache store removals by cache name and reason.",
		},
		[]string{"cache", "reason"},
	)

	// Gauge: current entries per store.
	CacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "saju_cache_entries",
			Help: "Current number of entries held by a cache store.",
		},
		[]string{"cache"},
	)

	// Counter: underlying computations run by memoizers.
	MemoComputationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saju_memo_computations_total",
			Help: "Computations executed on memoizer misses, by outcome.",
		},
		[]string{"memo", "outcome"},
	)

	// Histogram: items per processed batch.
	BatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saju_batch_size",
			Help:    "Number of items coalesced into one bulk computation.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
		},
		[]string{"processor"},
	)

	// Counter: batch flushes by trigger (size|delay|manual) and outcome.
	BatchFlushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saju_batch_flushes_total",
			Help: "Batch flushes by trigger and outcome.",
		},
		[]string{"processor", "trigger", "outcome"},
	)

	// Counter: how many times a score was served from the result tier.
	ResultCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "saju_result_cache_hits_total",
			Help: "Total number of score result cache hits.",
		},
	)

	// Histogram: HTTP latency in seconds.
	HTTPLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saju_http_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"path", "method", "status_code"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CacheRequestsTotal,
			CacheEvictionsTotal,
			CacheEntries,
			MemoComputationsTotal,
			BatchSize,
			BatchFlushesTotal,
			ResultCacheHitsTotal,
			HTTPLatencySeconds,
		)
	})
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures latency for each HTTP request. The route pattern is
// supplied by routePattern so path parameters do not explode label cardinality.
func Middleware(routePattern func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			path := r.URL.Path
			if routePattern != nil {
				if p := routePattern(r); p != "" {
					path = p
				}
			}

			HTTPLatencySeconds.
				WithLabelValues(path, r.Method, strconv.Itoa(rec.statusCode)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
