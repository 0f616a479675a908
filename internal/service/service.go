// Package service wires chart lookup, caching, batching and scoring into the
// operations exposed over HTTP and the CLI.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"saju-engine/internal/batch"
	"saju-engine/internal/cache"
	"saju-engine/internal/chart"
	"saju-engine/internal/memo"
	"saju-engine/internal/saju"
	"saju-engine/internal/scoring"
	"saju-engine/pkg/logging"
)

// maxLuckPillars is how many luck pillars are computed and cached per chart.
const maxLuckPillars = 12

// ErrInvalidRequest marks caller mistakes that are not chart errors.
var ErrInvalidRequest = errors.New("service: invalid request")

// Deps are the collaborators of a Service.
type Deps struct {
	Provider chart.Provider
	Registry *cache.Registry
	// Results holds encoded comprehensive scores. Nil disables the tier.
	Results   cache.ResultCache
	ResultTTL time.Duration
	Params    scoring.Params
	Batch     batch.Options
	Logger    *zap.Logger
}

// Service owns the memoizers and the chart batch processor. It is safe for
// concurrent use.
type Service struct {
	provider  chart.Provider
	registry  *cache.Registry
	results   cache.ResultCache
	resultTTL time.Duration
	logger    *zap.Logger

	chartBatch *batch.Processor[saju.BirthInput, saju.Pillars]
	charts     *memo.Async[saju.BirthInput, saju.Pillars]
	luck       *memo.Async[saju.BirthInput, chart.LuckCycle]
	compat     cache.Typed[scoring.CompatibilityScore]

	mu       sync.RWMutex
	params   scoring.Params
	revision uint64
}

// New builds a Service. Registry lifecycle (Start/Shutdown) stays with the caller.
func New(d Deps) (*Service, error) {
	if d.Provider == nil {
		return nil, errors.New("service: provider is required")
	}
	if d.Registry == nil {
		return nil, errors.New("service: registry is required")
	}
	if err := d.Params.Validate(); err != nil {
		return nil, err
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.ResultTTL <= 0 {
		d.ResultTTL = time.Hour
	}
	if d.Batch.Name == "" {
		d.Batch.Name = "chart"
	}
	d.Batch.Logger = d.Logger

	s := &Service{
		provider:  d.Provider,
		registry:  d.Registry,
		results:   d.Results,
		resultTTL: d.ResultTTL,
		logger:    d.Logger.Named("service"),
		params:    d.Params,
		revision:  1,
	}

	s.chartBatch = batch.New[saju.BirthInput, saju.Pillars](d.Provider.ComputeCharts, d.Batch)

	s.charts = memo.NewAsync(
		func(ctx context.Context, in saju.BirthInput) (saju.Pillars, error) {
			return s.chartBatch.Add(ctx, in)
		},
		cache.BirthKey,
		memo.AsyncOptions[saju.Pillars]{
			Name:    cache.SajuCache,
			Storage: cache.NewTyped[saju.Pillars](d.Registry.Store(cache.SajuCache)),
			Logger:  d.Logger,
		},
	)

	s.luck = memo.NewAsync(
		func(ctx context.Context, in saju.BirthInput) (chart.LuckCycle, error) {
			p, err := s.charts.Do(ctx, in)
			if err != nil {
				return chart.LuckCycle{}, err
			}
			return chart.Luck(in, p, maxLuckPillars)
		},
		func(in saju.BirthInput) string { return cache.DaeunKey(cache.BirthKey(in)) },
		memo.AsyncOptions[chart.LuckCycle]{
			Name:    cache.DaeunCache,
			Storage: cache.NewTyped[chart.LuckCycle](d.Registry.Store(cache.DaeunCache)),
			Logger:  d.Logger,
		},
	)

	s.compat = cache.NewTyped[scoring.CompatibilityScore](d.Registry.Store(cache.CompatibilityCache))
	return s, nil
}

// Close drains the chart batch processor.
func (s *Service) Close() error {
	return s.chartBatch.Close()
}

// Params returns the active scoring params and their revision.
func (s *Service) Params() (scoring.Params, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params, s.revision
}

// SetParams swaps the scoring params. The revision bump makes every cached
// score unreachable; compatibility results are dropped outright.
func (s *Service) SetParams(p scoring.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.params = p
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	s.compat.Clear()
	s.logger.Info("scoring_params_updated", zap.Uint64("params_revision", rev))
	return nil
}

// Chart returns the memoized chart for in. Concurrent misses are coalesced
// into batched provider calls.
func (s *Service) Chart(ctx context.Context, in saju.BirthInput) (saju.Pillars, error) {
	if err := s.checkInput(in); err != nil {
		return saju.Pillars{}, err
	}
	return s.charts.Do(ctx, in)
}

// checkInput rejects what the provider would fail on before it joins a batch.
func (s *Service) checkInput(in saju.BirthInput) error {
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", chart.ErrInvalidInput, err)
	}
	if cc, ok := s.provider.(chart.CalendarChecker); ok && !cc.SupportsCalendar(in.Calendar) {
		return fmt.Errorf("%w: %s", chart.ErrUnsupportedCalendar, in.Calendar)
	}
	return nil
}

// Luck returns the first count luck pillars (chart.DefaultLuckPillars when
// count is not positive).
func (s *Service) Luck(ctx context.Context, in saju.BirthInput, count int) (chart.LuckCycle, error) {
	if count <= 0 {
		count = chart.DefaultLuckPillars
	}
	if count > maxLuckPillars {
		return chart.LuckCycle{}, fmt.Errorf("%w: at most %d luck pillars", ErrInvalidRequest, maxLuckPillars)
	}
	if err := s.checkInput(in); err != nil {
		return chart.LuckCycle{}, err
	}

	lc, err := s.luck.Do(ctx, in)
	if err != nil {
		return chart.LuckCycle{}, err
	}
	out := lc
	out.Pillars = append([]chart.LuckPillar(nil), lc.Pillars[:count]...)
	return out, nil
}

// ScoreRequest selects a chart by birth data or by explicit pillars.
type ScoreRequest struct {
	Birth   *saju.BirthInput
	Pillars *saju.Pillars
	Target  *saju.Element
	Transit *saju.Pillar
}

// Score returns the comprehensive score, served from the result tier when
// the same chart was scored under the current params revision.
func (s *Service) Score(ctx context.Context, req ScoreRequest) (scoring.ComprehensiveScore, error) {
	var (
		p       saju.Pillars
		subject string
	)
	switch {
	case req.Pillars != nil:
		p = *req.Pillars
		subject = "pillars:" + p.String()
	case req.Birth != nil:
		var err error
		if p, err = s.Chart(ctx, *req.Birth); err != nil {
			return scoring.ComprehensiveScore{}, err
		}
		subject = cache.BirthKey(*req.Birth)
	default:
		return scoring.ComprehensiveScore{}, fmt.Errorf("%w: birth or pillars required", ErrInvalidRequest)
	}

	params, rev := s.Params()
	key := cache.ScoreKey{Revision: rev, Subject: subject}
	if req.Transit != nil {
		key.Transit = req.Transit.String()
	}
	if req.Target != nil {
		key.Target = req.Target.String()
	}

	if cached, ok := s.cachedScore(ctx, key.String()); ok {
		return cached, nil
	}

	score := scoring.Comprehensive(p, scoring.Options{Target: req.Target, Transit: req.Transit}, params)
	s.storeScore(ctx, key.String(), score)
	return score, nil
}

func (s *Service) cachedScore(ctx context.Context, key string) (scoring.ComprehensiveScore, bool) {
	if s.results == nil {
		return scoring.ComprehensiveScore{}, false
	}
	raw, ok, err := s.results.Get(ctx, key)
	if err != nil || !ok {
		// errors are logged by the cache decorator; treat as miss
		return scoring.ComprehensiveScore{}, false
	}
	var score scoring.ComprehensiveScore
	if err := json.Unmarshal(raw, &score); err != nil {
		logging.L(ctx).Warn("result_cache_decode_failed", zap.String("cache_key", key), zap.Error(err))
		return scoring.ComprehensiveScore{}, false
	}
	return score, true
}

func (s *Service) storeScore(ctx context.Context, key string, score scoring.ComprehensiveScore) {
	if s.results == nil {
		return
	}
	raw, err := json.Marshal(score)
	if err != nil {
		logging.L(ctx).Warn("result_cache_encode_failed", zap.String("cache_key", key), zap.Error(err))
		return
	}
	_ = s.results.Set(ctx, key, raw, s.resultTTL)
}

// Participant is one side of a compatibility request.
type Participant struct {
	// ID identifies the person; BirthKey is used when empty.
	ID    string
	Birth saju.BirthInput
}

func (p Participant) key() string {
	if p.ID != "" {
		return p.ID
	}
	return cache.BirthKey(p.Birth)
}

// Compatibility scores two participants. Both charts are requested
// concurrently so they share a provider batch.
func (s *Service) Compatibility(ctx context.Context, a, b Participant) (scoring.CompatibilityScore, error) {
	key := cache.CompatibilityKey(a.key(), b.key())
	if v, ok := s.compat.Get(key); ok {
		return v, nil
	}

	var pa, pb saju.Pillars
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pa, err = s.Chart(gctx, a.Birth)
		return err
	})
	g.Go(func() error {
		var err error
		pb, err = s.Chart(gctx, b.Birth)
		return err
	})
	if err := g.Wait(); err != nil {
		return scoring.CompatibilityScore{}, err
	}

	params, _ := s.Params()
	score := scoring.Compatibility(pa, pb, params)
	s.compat.Set(key, score)
	return score, nil
}

// Stats is a snapshot of every cache and memoizer the service owns.
type Stats struct {
	Caches         map[string]cache.Stats `json:"caches"`
	Charts         memo.Stats             `json:"charts"`
	Luck           memo.Stats             `json:"luck"`
	BatchQueue     int                    `json:"batch_queue"`
	ParamsRevision uint64                 `json:"params_revision"`
}

// Stats reports cache effectiveness.
func (s *Service) Stats() Stats {
	_, rev := s.Params()
	st := Stats{
		Caches:         s.registry.Stats(),
		Charts:         s.charts.Stats(),
		Luck:           s.luck.Stats(),
		BatchQueue:     s.chartBatch.QueueSize(),
		ParamsRevision: rev,
	}
	if m, ok := s.resultBackend().(interface{ Stats() cache.Stats }); ok {
		st.Caches["result"] = m.Stats()
	}
	return st
}

// resultBackend strips decorators from the result tier.
func (s *Service) resultBackend() cache.ResultCache {
	rc := s.results
	for {
		u, ok := rc.(interface{ Unwrap() cache.ResultCache })
		if !ok {
			return rc
		}
		rc = u.Unwrap()
	}
}

// ClearCaches empties every registry store and the result tier.
func (s *Service) ClearCaches() {
	s.registry.ClearAll()
	if c, ok := s.resultBackend().(interface{ Clear() }); ok {
		c.Clear()
	}
}
