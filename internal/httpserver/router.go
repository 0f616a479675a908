package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"saju-engine/internal/handlers"
	"saju-engine/internal/metrics"
	"saju-engine/internal/middleware"
)

// DefaultMaxBodyBytes caps request bodies; birth payloads are tiny.
const DefaultMaxBodyBytes = 64 * 1024

// Options tune the middleware stack.
type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// SetupRouter mounts middleware and the /v1 routes on r.
func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, h *handlers.Handler, opts Options) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	r.Use(metrics.Middleware(routePattern))

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.MaxBodySize(opts.MaxBodyBytes))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/charts", h.Chart)
		r.Post("/luck", h.Luck)
		r.Post("/scores", h.Score)
		r.Post("/compatibility", h.Compatibility)
		r.Get("/cache/stats", h.CacheStats)
		r.Delete("/cache", h.ClearCaches)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
}

// routePattern reports the matched chi pattern once routing has finished.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
