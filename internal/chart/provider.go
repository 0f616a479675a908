// Package chart derives four-pillar charts from birth data.
package chart

import (
	"context"
	"errors"

	"saju-engine/internal/saju"
)

var (
	// ErrUnsupportedCalendar is returned for calendars a provider cannot convert.
	ErrUnsupportedCalendar = errors.New("chart: unsupported calendar")
	// ErrInvalidInput wraps birth input and chart validation failures.
	ErrInvalidInput = errors.New("chart: invalid input")
	// ErrUpstream marks failures of a remote chart service.
	ErrUpstream = errors.New("chart: upstream failure")
)

// Provider computes charts. Implementations must be pure functions of their
// input: the same BirthInput always yields the same Pillars.
type Provider interface {
	ComputeChart(ctx context.Context, in saju.BirthInput) (saju.Pillars, error)
	// ComputeCharts returns one chart per input, in input order.
	ComputeCharts(ctx context.Context, in []saju.BirthInput) ([]saju.Pillars, error)
}

// CalendarChecker is implemented by providers that only convert some
// calendars. Callers that batch inputs check first so one unsupported input
// cannot fail a whole batch.
type CalendarChecker interface {
	SupportsCalendar(c saju.CalendarType) bool
}
