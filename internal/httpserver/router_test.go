package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"saju-engine/internal/batch"
	"saju-engine/internal/cache"
	"saju-engine/internal/chart"
	"saju-engine/internal/handlers"
	"saju-engine/internal/scoring"
	"saju-engine/internal/service"
)

func newRouter(t *testing.T) *chi.Mux {
	t.Helper()
	logger := zaptest.NewLogger(t)
	reg := cache.NewRegistry(cache.DefaultRegistryConfig(), logger)
	svc, err := service.New(service.Deps{
		Provider: chart.NewLocal(),
		Registry: reg,
		Params:   scoring.DefaultParams(),
		Batch:    batch.Options{BatchSize: 1, Delay: time.Millisecond},
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = svc.Close()
		reg.Shutdown()
	})

	r := chi.NewRouter()
	SetupRouter(r, logger, handlers.New(svc), Options{MaxBodyBytes: 1024})
	return r
}

func TestRoutes(t *testing.T) {
	r := newRouter(t)
	birth := `{"birth":{"date":"1990-05-15","hour":10,"gender":"male"}}`

	cases := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodPost, "/v1/charts", birth, http.StatusOK},
		{http.MethodPost, "/v1/luck", birth, http.StatusOK},
		{http.MethodPost, "/v1/scores", birth, http.StatusOK},
		{http.MethodGet, "/v1/cache/stats", "", http.StatusOK},
		{http.MethodDelete, "/v1/cache", "", http.StatusNoContent},
		{http.MethodGet, "/v1/charts", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
		})
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	r := newRouter(t)
	body := `{"birth":{"date":"1990-05-15","gender":"male","timezone":"` + strings.Repeat("x", 2048) + `"}}`

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/charts", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRequestIDHeader(t *testing.T) {
	r := newRouter(t)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}
