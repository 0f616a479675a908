package chart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"saju-engine/internal/saju"
)

func TestNewRemoteValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewRemote(RemoteConfig{}, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected validation error, got nil")
	}
}

func TestRemoteComputeChartsSuccess(t *testing.T) {
	t.Parallel()

	var gotReq remoteBatchRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != batchPath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		resp := remoteBatchResponse{Charts: []remoteChart{
			{Version: 1, Year: "庚午", Month: "辛巳", Day: "庚辰", Hour: "辛巳"},
			{Version: 1, Year: "甲子", Month: "丙寅", Day: "戊辰", Hour: "-"},
		}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	r, err := NewRemote(RemoteConfig{BaseURL: srv.URL + "/", APIKey: "test-key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	defer r.Close()

	out, err := r.ComputeCharts(context.Background(), []saju.BirthInput{
		birth(1990, time.May, 15, 10, saju.Male),
		birth(1984, time.February, 4, saju.UnknownHour, saju.Female),
	})
	if err != nil {
		t.Fatalf("ComputeCharts: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected Authorization header: %s", gotAuth)
	}
	if len(gotReq.Inputs) != 2 || gotReq.Inputs[0].Date != "1990-05-15" || *gotReq.Inputs[0].Hour != 10 {
		t.Fatalf("unexpected request: %#v", gotReq)
	}
	if gotReq.Inputs[1].Hour != nil {
		t.Fatalf("unknown hour should be omitted, got %d", *gotReq.Inputs[1].Hour)
	}
	if out[0].String() != "庚午/辛巳/庚辰/辛巳" || out[1].String() != "甲子/丙寅/戊辰/-" {
		t.Fatalf("unexpected charts: %s, %s", out[0], out[1])
	}
}

func TestRemoteRetriesOnServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(remoteBatchResponse{Charts: []remoteChart{
			{Year: "庚午", Month: "辛巳", Day: "庚辰"},
		}})
	}))
	defer srv.Close()

	r, err := NewRemote(RemoteConfig{
		BaseURL:     srv.URL,
		APIKey:      "k",
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}

	p, err := r.ComputeChart(context.Background(), birth(1990, time.May, 15, saju.UnknownHour, saju.Male))
	if err != nil {
		t.Fatalf("ComputeChart: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
	if p.Hour.Known() {
		t.Fatalf("hour should be absent")
	}
}

func TestRemoteClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad date","type":"invalid_request"}}`))
	}))
	defer srv.Close()

	r, err := NewRemote(RemoteConfig{BaseURL: srv.URL, APIKey: "k", BaseBackoff: time.Millisecond}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}

	_, err = r.ComputeChart(context.Background(), birth(1990, time.May, 15, 10, saju.Male))
	if err == nil || !strings.Contains(err.Error(), "bad date") {
		t.Fatalf("expected provider error, got %v", err)
	}
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", calls.Load())
	}
}

func TestRemoteChartCountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(remoteBatchResponse{})
	}))
	defer srv.Close()

	r, err := NewRemote(RemoteConfig{BaseURL: srv.URL, APIKey: "k"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	if _, err := r.ComputeChart(context.Background(), birth(1990, time.May, 15, 10, saju.Male)); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	resp := &http.Response{Header: http.Header{}}
	if d := parseRetryAfter(resp); d != 0 {
		t.Fatalf("expected 0 for missing header, got %v", d)
	}
	resp.Header.Set("Retry-After", "2")
	if d := parseRetryAfter(resp); d != 2*time.Second {
		t.Fatalf("expected 2s, got %v", d)
	}
	resp.Header.Set("Retry-After", "3600")
	if d := parseRetryAfter(resp); d != maxRetryAfter {
		t.Fatalf("expected cap %v, got %v", maxRetryAfter, d)
	}
}

func TestComputeBackoffBounds(t *testing.T) {
	t.Parallel()

	for attempt := 0; attempt < 20; attempt++ {
		d := computeBackoff(10*time.Millisecond, attempt)
		if d < 0 || d > maxBackoff {
			t.Fatalf("attempt %d: backoff %v out of range", attempt, d)
		}
	}
}
