package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"saju-engine/internal/cache"
	"saju-engine/pkg/logging"
)

// Chart handles POST /v1/charts.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req chartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.Birth.input()
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.engine.Chart(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logging.L(r.Context()).Info("chart_served",
		zap.String("cache_key", cache.BirthKey(in)),
		zap.Duration("total_latency_ms", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, chartResponse{Pillars: p})
}

// Luck handles POST /v1/luck.
func (h *Handler) Luck(w http.ResponseWriter, r *http.Request) {
	var req luckRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.Birth.input()
	if err != nil {
		writeError(w, r, err)
		return
	}

	lc, err := h.engine.Luck(r.Context(), in, req.Count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lc)
}
