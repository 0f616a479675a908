package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"saju-engine/internal/batch"
	"saju-engine/internal/cache"
	"saju-engine/internal/chart"
	"saju-engine/internal/saju"
	"saju-engine/internal/scoring"
)

// countingProvider wraps the local provider and records bulk calls.
type countingProvider struct {
	chart.Local
	calls  atomic.Int32
	inputs atomic.Int32
	fail   atomic.Bool
}

func (p *countingProvider) ComputeCharts(ctx context.Context, in []saju.BirthInput) ([]saju.Pillars, error) {
	p.calls.Add(1)
	p.inputs.Add(int32(len(in)))
	if p.fail.Load() {
		return nil, errors.New("provider down")
	}
	return p.Local.ComputeCharts(ctx, in)
}

func newTestService(t *testing.T, prov chart.Provider) *Service {
	t.Helper()
	reg := cache.NewRegistry(cache.DefaultRegistryConfig(), zaptest.NewLogger(t))
	results := cache.NewLoggingResultCache(cache.NewMemoryResultCache(cache.Options{TTL: time.Hour}, time.Hour))

	svc, err := New(Deps{
		Provider:  prov,
		Registry:  reg,
		Results:   results,
		ResultTTL: time.Hour,
		Params:    scoring.DefaultParams(),
		Batch:     batch.Options{BatchSize: 2, Delay: 100 * time.Millisecond},
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = svc.Close()
		reg.Shutdown()
	})
	return svc
}

func birthInput(y int, m time.Month, d, hour int, g saju.Gender) saju.BirthInput {
	return saju.BirthInput{
		Date:     time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Hour:     hour,
		Gender:   g,
		Calendar: saju.Solar,
	}
}

func TestChartIsMemoized(t *testing.T) {
	prov := &countingProvider{}
	svc := newTestService(t, prov)
	ctx := context.Background()
	in := birthInput(1990, time.May, 15, 10, saju.Male)

	p1, err := svc.Chart(ctx, in)
	require.NoError(t, err)
	p2, err := svc.Chart(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, "庚午/辛巳/庚辰/辛巳", p1.String())
	assert.Equal(t, int32(1), prov.calls.Load())

	st := svc.Stats()
	assert.Equal(t, uint64(1), st.Charts.Hits)
	assert.Equal(t, 1, st.Caches[cache.SajuCache].TotalEntries)
	assert.Equal(t, uint64(1), st.Caches[cache.SajuCache].MissCount)
	assert.Equal(t, uint64(1), st.Caches[cache.SajuCache].HitCount)
	assert.Equal(t, 0.5, st.Caches[cache.SajuCache].HitRate)
}

func TestConcurrentChartsShareBatch(t *testing.T) {
	prov := &countingProvider{}
	svc := newTestService(t, prov)
	ctx := context.Background()

	ins := []saju.BirthInput{
		birthInput(1990, time.May, 15, 10, saju.Male),
		birthInput(2000, time.January, 1, 12, saju.Female),
	}
	var wg sync.WaitGroup
	for _, in := range ins {
		wg.Add(1)
		go func(in saju.BirthInput) {
			defer wg.Done()
			_, err := svc.Chart(ctx, in)
			assert.NoError(t, err)
		}(in)
	}
	wg.Wait()

	assert.Equal(t, int32(1), prov.calls.Load(), "two distinct charts should fill one batch of size 2")
	assert.Equal(t, int32(2), prov.inputs.Load())
}

func TestChartFailureIsRetried(t *testing.T) {
	prov := &countingProvider{}
	prov.fail.Store(true)
	svc := newTestService(t, prov)
	ctx := context.Background()
	in := birthInput(1990, time.May, 15, 10, saju.Male)

	_, err := svc.Chart(ctx, in)
	require.Error(t, err)

	prov.fail.Store(false)
	_, err = svc.Chart(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int32(2), prov.calls.Load())
}

func TestChartRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t, &countingProvider{})
	in := birthInput(1990, time.May, 15, 10, "other")
	_, err := svc.Chart(context.Background(), in)
	assert.ErrorIs(t, err, chart.ErrInvalidInput)
}

func TestScoreUsesResultCacheAndRevision(t *testing.T) {
	prov := &countingProvider{}
	svc := newTestService(t, prov)
	ctx := context.Background()
	in := birthInput(1990, time.May, 15, 10, saju.Male)

	first, err := svc.Score(ctx, ScoreRequest{Birth: &in})
	require.NoError(t, err)
	second, err := svc.Score(ctx, ScoreRequest{Birth: &in})
	require.NoError(t, err)
	assert.Equal(t, first.Overall, second.Overall)
	assert.Equal(t, 1, svc.Stats().Caches["result"].TotalEntries)

	params := scoring.DefaultParams()
	params.Grades = scoring.GradeBands{S: 95, A: 85, B: 75, C: 65, D: 55}
	require.NoError(t, svc.SetParams(params))

	_, rev := svc.Params()
	assert.Equal(t, uint64(2), rev)

	third, err := svc.Score(ctx, ScoreRequest{Birth: &in})
	require.NoError(t, err)
	assert.Equal(t, scoring.GradeFor(third.Overall, params.Grades), third.Grade)
	assert.Equal(t, 2, svc.Stats().Caches["result"].TotalEntries)
}

func TestScoreWithPillarsAndTransit(t *testing.T) {
	svc := newTestService(t, &countingProvider{})
	p, err := saju.ParsePillars("庚午/辛巳/丙子/戊子")
	require.NoError(t, err)
	target := saju.Water
	transit := saju.MustPillar("辛丑")

	score, err := svc.Score(context.Background(), ScoreRequest{Pillars: &p, Target: &target, Transit: &transit})
	require.NoError(t, err)
	require.NotNil(t, score.Period)
	assert.Equal(t, 8.0, score.Period.Delta)
	assert.Equal(t, saju.Water, score.Affinity.TargetElement)

	// explicit pillars never touch the provider
	assert.Zero(t, svc.Stats().Charts.Misses)
}

func TestScoreRequiresSubject(t *testing.T) {
	svc := newTestService(t, &countingProvider{})
	_, err := svc.Score(context.Background(), ScoreRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSetParamsRejectsInvalid(t *testing.T) {
	svc := newTestService(t, &countingProvider{})
	bad := scoring.DefaultParams()
	bad.Weights = scoring.Weights{}
	assert.ErrorIs(t, svc.SetParams(bad), scoring.ErrInvalidParams)

	_, rev := svc.Params()
	assert.Equal(t, uint64(1), rev)
}

func TestCompatibilityCachedAndSymmetric(t *testing.T) {
	prov := &countingProvider{}
	svc := newTestService(t, prov)
	ctx := context.Background()

	a := Participant{ID: "alice", Birth: birthInput(1990, time.May, 15, 10, saju.Female)}
	b := Participant{ID: "bob", Birth: birthInput(1988, time.August, 20, saju.UnknownHour, saju.Male)}

	ab, err := svc.Compatibility(ctx, a, b)
	require.NoError(t, err)
	calls := prov.calls.Load()

	ba, err := svc.Compatibility(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.Equal(t, calls, prov.calls.Load(), "reversed pair should hit the compatibility cache")
	assert.Equal(t, 1, svc.Stats().Caches[cache.CompatibilityCache].TotalEntries)
}

func TestLuckTrimsAndCaches(t *testing.T) {
	prov := &countingProvider{}
	svc := newTestService(t, prov)
	ctx := context.Background()
	in := birthInput(1990, time.May, 15, 10, saju.Male)

	lc, err := svc.Luck(ctx, in, 3)
	require.NoError(t, err)
	assert.Len(t, lc.Pillars, 3)
	assert.Equal(t, 7, lc.StartAge)

	lc, err = svc.Luck(ctx, in, 0)
	require.NoError(t, err)
	assert.Len(t, lc.Pillars, chart.DefaultLuckPillars)
	assert.Equal(t, uint64(1), svc.Stats().Luck.Hits)

	_, err = svc.Luck(ctx, in, 99)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestUnsupportedCalendarNeverReachesBatch(t *testing.T) {
	prov := &countingProvider{}
	svc := newTestService(t, prov)
	in := birthInput(1990, time.May, 15, 10, saju.Male)
	in.Calendar = saju.Lunar

	_, err := svc.Chart(context.Background(), in)
	assert.ErrorIs(t, err, chart.ErrUnsupportedCalendar)
	assert.Zero(t, prov.calls.Load())
}
