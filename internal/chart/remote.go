package chart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"saju-engine/internal/saju"
)

const (
	batchPath       = "/v1/charts:batch"
	maxBatchInputs  = 500
	maxResponseBody = 4 * 1024 * 1024
)

// RemoteConfig configures the HTTP chart provider.
type RemoteConfig struct {
	//required fields
	BaseURL string
	APIKey  string

	Timeout     time.Duration // per-request timeout (default: 10s)
	MaxRetries  int           // retry attempts (default: 2)
	BaseBackoff time.Duration // initial backoff (default: 100ms)

	// Custom HTTP client (for testing or special configs)
	HTTPClient *http.Client
}

// Validate checks required fields only.
func (c *RemoteConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("BaseURL is required")
	}
	if c.APIKey == "" {
		return errors.New("APIKey is required")
	}
	return nil
}

// WithDefaults returns a copy of RemoteConfig with defaults applied.
func (c *RemoteConfig) WithDefaults() RemoteConfig {
	cfg := *c
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 100 * time.Millisecond
	}
	return cfg
}

// Remote calls an external chart service. Inputs are sent in one batch
// request per ComputeCharts call.
type Remote struct {
	cfg        RemoteConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRemote creates the provider.
func NewRemote(cfg RemoteConfig, logger *zap.Logger) (*Remote, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chart: invalid remote config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: defaultTransport()}
	}

	return &Remote{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.Named("chart_remote"),
	}, nil
}

func defaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Close releases idle connections.
func (r *Remote) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}

// ComputeChart is a batch of one.
func (r *Remote) ComputeChart(ctx context.Context, in saju.BirthInput) (saju.Pillars, error) {
	out, err := r.ComputeCharts(ctx, []saju.BirthInput{in})
	if err != nil {
		return saju.Pillars{}, err
	}
	return out[0], nil
}

// ComputeCharts posts every input in one request and maps the charts back by position.
func (r *Remote) ComputeCharts(parentCtx context.Context, in []saju.BirthInput) ([]saju.Pillars, error) {
	start := time.Now()

	if len(in) == 0 {
		return nil, nil
	}
	if len(in) > maxBatchInputs {
		return nil, fmt.Errorf("%w: batch of %d exceeds %d inputs", ErrInvalidInput, len(in), maxBatchInputs)
	}

	req := remoteBatchRequest{Inputs: make([]remoteBirth, len(in))}
	for i, b := range in {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%w: input %d: %v", ErrInvalidInput, i, err)
		}
		req.Inputs[i] = toRemoteBirth(b)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("chart: marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(parentCtx, r.cfg.Timeout)
	defer cancel()

	url := r.cfg.BaseURL + batchPath
	doOnce := func(ctx context.Context, body []byte) (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("chart: build HTTP request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
		httpReq.Header.Set("Content-Type", "application/json")
		return r.httpClient.Do(httpReq)
	}

	resp, err := r.doWithRetry(ctx, body, doOnce)
	if err != nil {
		r.logger.Error("chart request failed",
			zap.Int("batch_size", len(in)),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var perr remoteErrorResponse
		if err := json.Unmarshal(raw, &perr); err == nil && perr.Error.Message != "" {
			r.logger.Error("chart provider error",
				zap.Int("status", resp.StatusCode),
				zap.String("error_type", perr.Error.Type),
				zap.String("error_message", perr.Error.Message),
			)
			return nil, fmt.Errorf("%w: status %d: %s (%s)", ErrUpstream, resp.StatusCode, perr.Error.Message, perr.Error.Type)
		}
		r.logger.Error("chart upstream error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(raw), 200)),
		)
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, truncate(string(raw), 200))
	}

	var pResp remoteBatchResponse
	if err := json.Unmarshal(raw, &pResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	if len(pResp.Charts) != len(in) {
		return nil, fmt.Errorf("%w: got %d charts for %d inputs", ErrUpstream, len(pResp.Charts), len(in))
	}

	out := make([]saju.Pillars, len(in))
	for i, c := range pResp.Charts {
		p, err := c.pillars()
		if err != nil {
			return nil, fmt.Errorf("%w: chart %d: %w", ErrUpstream, i, err)
		}
		out[i] = p
	}

	r.logger.Debug("chart request completed",
		zap.Int("batch_size", len(in)),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
