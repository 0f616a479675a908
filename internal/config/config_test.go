package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saju-engine/internal/cache"
	"saju-engine/internal/scoring"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SAJU_PORT", "LOG_LEVEL", "ENV", "SAJU_REDIS_ADDR", "SAJU_CHART_API_KEY"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Valid(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 9090
  log_level: debug
cache:
  saju:
    max_size: 50
    ttl: 10m
  result:
    backend: memory
    ttl: 5m
batch:
  size: 4
  delay: 20ms
scoring:
  weights:
    balance: 0.4
    strength: 0.2
    pattern: 0.2
    affinity: 0.2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 50, cfg.Cache.Saju.MaxSize)
	assert.Equal(t, 10*time.Minute, cfg.Cache.Saju.TTL)
	assert.Equal(t, 4, cfg.Batch.Size)
	assert.Equal(t, 20*time.Millisecond, cfg.Batch.Delay)
	assert.Equal(t, 0.4, cfg.Scoring.Weights.Balance)

	// untouched sections keep defaults
	assert.Equal(t, scoring.DefaultParams().Strength, cfg.Scoring.Strength)
	assert.Equal(t, cache.DefaultRegistryConfig().Daeun, cfg.Registry().Daeun)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, ProviderLocal, cfg.Chart.Provider)
	assert.Equal(t, cache.BackendMemory, cfg.Cache.Result.Backend)
	assert.Equal(t, scoring.DefaultParams(), cfg.Scoring)
	assert.Equal(t, cache.DefaultRegistryConfig().Saju, cfg.Registry().Saju)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SAJU_PORT", "7070")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SAJU_REDIS_ADDR", "redis:6379")
	t.Setenv("SAJU_CHART_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, "redis:6379", cfg.Cache.Result.RedisAddr)
	assert.Equal(t, "secret", cfg.Remote().APIKey)
}

func TestLoad_ExpandsEnvReferences(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHART_URL", "https://charts.example.com")
	t.Setenv("CHART_KEY", "k1")
	path := writeConfig(t, `
chart:
  provider: remote
  base_url: ${CHART_URL}
  api_key: ${CHART_KEY}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://charts.example.com", cfg.Chart.BaseURL)
	assert.Equal(t, "k1", cfg.Chart.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad port":           "server:\n  port: 70000\n",
		"bad backend":        "cache:\n  result:\n    backend: memcached\n",
		"redis without addr": "cache:\n  result:\n    backend: redis\n",
		"remote without url": "chart:\n  provider: remote\n  api_key: x\n",
		"zero batch size":    "batch:\n  size: 0\n",
		"unordered bands":    "scoring:\n  grades: {s: 50, a: 60, b: 70, c: 80, d: 90}\n",
		"bad log level":      "server:\n  log_level: loud\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_BadYAMLAndMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BadPortEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SAJU_PORT", "eighty")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestConversions(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	rc := cfg.ResultCache()
	assert.Equal(t, DefaultResultPrefix, rc.Prefix)
	assert.Equal(t, DefaultResultTTL, rc.TTL)

	bo := cfg.BatchOptions()
	assert.Equal(t, "chart", bo.Name)
	assert.Equal(t, cfg.Batch.Size, bo.BatchSize)

	remote := cfg.Remote()
	assert.Equal(t, DefaultChartTimeout, remote.Timeout)
	assert.Equal(t, DefaultChartRetries, remote.MaxRetries)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server:\n  port: 8081\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, func(c *Config) { changes <- c }) }()

	// let the watcher register before writing
	time.Sleep(50 * time.Millisecond)

	// an invalid write is skipped
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: -1\n"), 0o600))
	time.Sleep(3 * reloadDebounce)

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8082\n"), 0o600))

	select {
	case c := <-changes:
		assert.Equal(t, 8082, c.Server.Port)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"), func(*Config) {})
	assert.Error(t, err)
}

func TestLoad_ExampleFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	defaults := Defaults()
	assert.Equal(t, defaults.Scoring, cfg.Scoring)
	assert.Equal(t, defaults.Cache.Saju, cfg.Cache.Saju)
	assert.Equal(t, defaults.Batch, cfg.Batch)
	assert.Equal(t, DefaultResultPrefix, cfg.Cache.Result.Prefix)
}
