package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"saju-engine/pkg/logging"
)

// Score handles POST /v1/scores.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req scoreRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sreq, err := req.toService()
	if err != nil {
		writeError(w, r, err)
		return
	}

	score, err := h.engine.Score(r.Context(), sreq)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logging.L(r.Context()).Info("score_served",
		zap.Int("overall", score.Overall),
		zap.String("grade", string(score.Grade)),
		zap.Duration("total_latency_ms", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, score)
}

// Compatibility handles POST /v1/compatibility.
func (h *Handler) Compatibility(w http.ResponseWriter, r *http.Request) {
	var req compatibilityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := req.A.toService()
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := req.B.toService()
	if err != nil {
		writeError(w, r, err)
		return
	}

	score, err := h.engine.Compatibility(r.Context(), a, b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}
