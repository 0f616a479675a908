// Package handlers exposes the saju service over JSON/HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"saju-engine/internal/batch"
	"saju-engine/internal/chart"
	"saju-engine/internal/saju"
	"saju-engine/internal/scoring"
	"saju-engine/internal/service"
	"saju-engine/pkg/logging"
)

// Engine is the part of service.Service the handlers depend on.
type Engine interface {
	Chart(ctx context.Context, in saju.BirthInput) (saju.Pillars, error)
	Luck(ctx context.Context, in saju.BirthInput, count int) (chart.LuckCycle, error)
	Score(ctx context.Context, req service.ScoreRequest) (scoring.ComprehensiveScore, error)
	Compatibility(ctx context.Context, a, b service.Participant) (scoring.CompatibilityScore, error)
	Stats() service.Stats
	ClearCaches()
}

// Handler holds dependencies for the /v1 endpoints.
type Handler struct {
	engine Engine
}

func New(engine Engine) *Handler {
	return &Handler{engine: engine}
}

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}

// writeJSON is a small helper to send JSON responses consistently.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, chart.ErrInvalidInput),
		errors.Is(err, chart.ErrUnsupportedCalendar),
		errors.Is(err, saju.ErrInvalidBirth),
		errors.Is(err, saju.ErrInvalidPillar):
		return http.StatusBadRequest
	case errors.Is(err, chart.ErrUpstream),
		errors.Is(err, batch.ErrResultCount):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, batch.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := logging.L(r.Context())
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request_failed", zap.Int("status", status), zap.Error(err))
		if status == http.StatusInternalServerError {
			msg = "internal_server_error"
		}
	} else {
		logger.Warn("request_rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
