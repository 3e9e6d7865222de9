// Package config loads and validates application configuration from YAML files
// and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Comparison    ComparisonConfig    `yaml:"comparison"`
	Session       SessionConfig       `yaml:"session"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig describes Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// ComparisonConfig locates the comparison files.
type ComparisonConfig struct {
	ConfigFile      string        `yaml:"config_file"`
	DataFile        string        `yaml:"data_file"`
	DescriptionFile string        `yaml:"description_file"`
	HotReload       bool          `yaml:"hot_reload"`
	ReloadDebounce  time.Duration `yaml:"reload_debounce"`
}

// SessionConfig bounds the in-memory view sessions.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxSessions   int           `yaml:"max_sessions"`
}

// RateLimitConfig limits action dispatches per client address.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	ClientTTL         time.Duration `yaml:"client_ttl"`
}

// ObservabilityConfig describes logging, tracing, and metrics settings.
type ObservabilityConfig struct {
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"` // json or console
	Tracing   TracingConfig `yaml:"tracing"`
	Metrics   MetricsConfig `yaml:"metrics"`
}

// TracingConfig describes distributed tracing settings.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			HandlerTimeout:  25 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORS: CORSConfig{
				AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
				MaxAge:         86400,
			},
		},
		Comparison: ComparisonConfig{
			ConfigFile:      "configuration/comparison.yml",
			DataFile:        "data/data.json",
			DescriptionFile: "configuration/description.md",
			ReloadDebounce:  250 * time.Millisecond,
		},
		Session: SessionConfig{
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
			MaxSessions:   10000,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 20,
			Burst:             40,
			ClientTTL:         10 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
			Tracing: TracingConfig{
				Exporter:     "otlp",
				SamplingRate: 0.1,
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates required fields. Relative comparison paths are resolved
// against the directory of the config file.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	cfg.Comparison.resolve(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Comparison.ConfigFile == "" {
		errs = append(errs, "comparison.config_file is required")
	}
	if c.Comparison.DataFile == "" {
		errs = append(errs, "comparison.data_file is required")
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, "session.ttl must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, "session.sweep_interval must be positive")
	}
	if c.Session.MaxSessions < 1 {
		errs = append(errs, "session.max_sessions must be at least 1")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		errs = append(errs, "rate_limit requires positive requests_per_second and burst")
	}
	switch c.Observability.LogFormat {
	case "", "json", "console":
	default:
		errs = append(errs, "observability.log_format must be json or console")
	}
	switch c.Observability.Tracing.Exporter {
	case "", "otlp", "stdout", "none":
	default:
		errs = append(errs, "observability.tracing.exporter must be otlp, stdout or none")
	}
	if r := c.Observability.Tracing.SamplingRate; r < 0 || r > 1 {
		errs = append(errs, "observability.tracing.sampling_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *ComparisonConfig) resolve(dir string) {
	for _, p := range []*string{&c.ConfigFile, &c.DataFile, &c.DescriptionFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// applyEnvOverrides reads UCOMPARISON_* environment variables and overrides
// config values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UCOMPARISON_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("UCOMPARISON_CONFIG_FILE"); v != "" {
		cfg.Comparison.ConfigFile = v
	}
	if v := os.Getenv("UCOMPARISON_DATA_FILE"); v != "" {
		cfg.Comparison.DataFile = v
	}
	if v := os.Getenv("UCOMPARISON_DESCRIPTION_FILE"); v != "" {
		cfg.Comparison.DescriptionFile = v
	}
	if v := os.Getenv("UCOMPARISON_HOT_RELOAD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Comparison.HotReload = b
		}
	}
	if v := os.Getenv("UCOMPARISON_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = d
		}
	}
	if v := os.Getenv("UCOMPARISON_OBSERVABILITY_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("UCOMPARISON_OBSERVABILITY_LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
