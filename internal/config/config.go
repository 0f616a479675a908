package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"saju-engine/internal/batch"
	"saju-engine/internal/cache"
	"saju-engine/internal/chart"
	"saju-engine/internal/scoring"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultPort            = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultRequestTimeout  = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultResultTTL       = time.Hour
	DefaultResultMaxSize   = 2000
	DefaultResultPrefix    = "saju:result"
	DefaultChartTimeout    = 10 * time.Second
	DefaultChartRetries    = 2
)

// Chart providers.
const (
	ProviderLocal  = "local"
	ProviderRemote = "remote"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the top-level configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Cache   CacheConfig    `yaml:"cache"`
	Batch   BatchConfig    `yaml:"batch"`
	Chart   ChartConfig    `yaml:"chart"`
	Scoring scoring.Params `yaml:"scoring"`
}

// ServerConfig holds the HTTP host settings.
type ServerConfig struct {
	Port     int    `yaml:"port" validate:"gte=1,lte=65535"`
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	// Env selects the log encoder: dev/development for console, anything else JSON.
	Env string `yaml:"env"`

	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// StoreConfig sizes one named cache store.
type StoreConfig struct {
	MaxSize int           `yaml:"max_size" validate:"gte=0"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0"`
}

// CacheConfig holds the registry stores and the score result tier.
type CacheConfig struct {
	Saju            StoreConfig       `yaml:"saju"`
	Daeun           StoreConfig       `yaml:"daeun"`
	Compatibility   StoreConfig       `yaml:"compatibility"`
	CleanupInterval time.Duration     `yaml:"cleanup_interval" validate:"gte=0"`
	Result          ResultCacheConfig `yaml:"result"`
}

// ResultCacheConfig configures the byte-level score cache.
type ResultCacheConfig struct {
	Backend   string        `yaml:"backend" validate:"oneof=memory redis"`
	TTL       time.Duration `yaml:"ttl" validate:"gt=0"`
	MaxSize   int           `yaml:"max_size" validate:"gte=0"`
	Prefix    string        `yaml:"prefix"`
	RedisAddr string        `yaml:"redis_addr" validate:"required_if=Backend redis"`
}

// BatchConfig tunes the chart batch processor.
type BatchConfig struct {
	Size  int           `yaml:"size" validate:"gte=1"`
	Delay time.Duration `yaml:"delay" validate:"gt=0"`
}

// ChartConfig selects the chart provider.
type ChartConfig struct {
	Provider   string        `yaml:"provider" validate:"oneof=local remote"`
	BaseURL    string        `yaml:"base_url" validate:"required_if=Provider remote"`
	APIKey     string        `yaml:"api_key" validate:"required_if=Provider remote"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries int           `yaml:"max_retries" validate:"gte=0,lte=10"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the YAML file at path, expands ${VAR} references, applies
// environment overrides and validates. An empty path yields the defaults
// plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	reg := cache.DefaultRegistryConfig()
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			LogLevel:        "info",
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			RequestTimeout:  DefaultRequestTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Cache: CacheConfig{
			Saju:            StoreConfig(reg.Saju),
			Daeun:           StoreConfig(reg.Daeun),
			Compatibility:   StoreConfig(reg.Compatibility),
			CleanupInterval: reg.CleanupInterval,
			Result: ResultCacheConfig{
				Backend: cache.BackendMemory,
				TTL:     DefaultResultTTL,
				MaxSize: DefaultResultMaxSize,
				Prefix:  DefaultResultPrefix,
			},
		},
		Batch: BatchConfig{
			Size:  batch.DefaultBatchSize,
			Delay: batch.DefaultDelay,
		},
		Chart: ChartConfig{
			Provider:   ProviderLocal,
			Timeout:    DefaultChartTimeout,
			MaxRetries: DefaultChartRetries,
		},
		Scoring: scoring.DefaultParams(),
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SAJU_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SAJU_PORT %q: %v", ErrInvalid, v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SAJU_REDIS_ADDR"); v != "" {
		cfg.Cache.Result.RedisAddr = v
	}
	if v := os.Getenv("SAJU_CHART_API_KEY"); v != "" {
		cfg.Chart.APIKey = v
	}
	return nil
}

// Validate runs the struct-tag rules and the cross-field scoring checks.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalid, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("%w: scoring: %v", ErrInvalid, err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Server.Port) }

// Registry converts the cache section for cache.NewRegistry.
func (c *Config) Registry() cache.RegistryConfig {
	return cache.RegistryConfig{
		Saju:            cache.StoreConfig(c.Cache.Saju),
		Daeun:           cache.StoreConfig(c.Cache.Daeun),
		Compatibility:   cache.StoreConfig(c.Cache.Compatibility),
		CleanupInterval: c.Cache.CleanupInterval,
	}
}

// ResultCache converts the result section for cache.NewResultCache.
func (c *Config) ResultCache() cache.Config {
	return cache.Config{
		Backend:         c.Cache.Result.Backend,
		TTL:             c.Cache.Result.TTL,
		MaxSize:         c.Cache.Result.MaxSize,
		Prefix:          c.Cache.Result.Prefix,
		CleanupInterval: c.Cache.CleanupInterval,
	}
}

// BatchOptions converts the batch section for the chart processor.
func (c *Config) BatchOptions() batch.Options {
	return batch.Options{
		Name:      "chart",
		BatchSize: c.Batch.Size,
		Delay:     c.Batch.Delay,
	}
}

// Remote converts the chart section for chart.NewRemote.
func (c *Config) Remote() chart.RemoteConfig {
	return chart.RemoteConfig{
		BaseURL:    c.Chart.BaseURL,
		APIKey:     c.Chart.APIKey,
		Timeout:    c.Chart.Timeout,
		MaxRetries: c.Chart.MaxRetries,
	}
}
