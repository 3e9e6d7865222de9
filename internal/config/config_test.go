package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_valid(t *testing.T) {
	cfg, err := Load("testdata/valid.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want default 30s", cfg.Server.WriteTimeout)
	}
	if len(cfg.Server.CORS.AllowedOrigins) != 1 {
		t.Errorf("CORS.AllowedOrigins = %v, want 1 entry", cfg.Server.CORS.AllowedOrigins)
	}
	if want := filepath.Join("testdata", "comparison", "comparison.yml"); cfg.Comparison.ConfigFile != want {
		t.Errorf("Comparison.ConfigFile = %q, want %q", cfg.Comparison.ConfigFile, want)
	}
	if cfg.Comparison.DataFile != "/srv/data/data.json" {
		t.Errorf("Comparison.DataFile = %q, absolute path should be kept", cfg.Comparison.DataFile)
	}
	if !cfg.Comparison.HotReload {
		t.Error("Comparison.HotReload = false, want true")
	}
	if cfg.Comparison.ReloadDebounce != 500*time.Millisecond {
		t.Errorf("Comparison.ReloadDebounce = %v, want 500ms", cfg.Comparison.ReloadDebounce)
	}
	if cfg.Session.TTL != 10*time.Minute || cfg.Session.MaxSessions != 500 {
		t.Errorf("Session = %+v", cfg.Session)
	}
	if cfg.Session.SweepInterval != time.Minute {
		t.Errorf("Session.SweepInterval = %v, want default 1m", cfg.Session.SweepInterval)
	}
	if cfg.RateLimit.RequestsPerSecond != 5 || cfg.RateLimit.Burst != 10 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if !cfg.Observability.Tracing.Enabled || cfg.Observability.Tracing.Exporter != "stdout" {
		t.Errorf("Tracing = %+v", cfg.Observability.Tracing)
	}
}

func TestLoad_missing_file(t *testing.T) {
	_, err := Load("testdata/nonexistent.yaml")
	if err == nil {
		t.Fatal("Load() with missing file should return error")
	}
}

func TestLoad_invalid_session(t *testing.T) {
	_, err := Load("testdata/invalid_session.yaml")
	if err == nil {
		t.Fatal("Load() with invalid session settings should return error")
	}
	for _, want := range []string{"session.ttl", "session.max_sessions"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Server.Port != 8080 {
		t.Errorf("default Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("default Session.TTL = %v, want 30m", cfg.Session.TTL)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("default LogLevel = %q, want info", cfg.Observability.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults().Validate() error = %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("UCOMPARISON_SERVER_PORT", "3000")
	t.Setenv("UCOMPARISON_DATA_FILE", "/env/data.json")
	t.Setenv("UCOMPARISON_HOT_RELOAD", "false")
	t.Setenv("UCOMPARISON_SESSION_TTL", "90s")
	t.Setenv("UCOMPARISON_OBSERVABILITY_LOG_LEVEL", "error")

	cfg, err := Load("testdata/valid.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000 (env override)", cfg.Server.Port)
	}
	if cfg.Comparison.DataFile != "/env/data.json" {
		t.Errorf("Comparison.DataFile = %q, want env override", cfg.Comparison.DataFile)
	}
	if cfg.Comparison.HotReload {
		t.Error("Comparison.HotReload = true, want env override false")
	}
	if cfg.Session.TTL != 90*time.Second {
		t.Errorf("Session.TTL = %v, want 90s", cfg.Session.TTL)
	}
	if cfg.Observability.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error (env override)", cfg.Observability.LogLevel)
	}
}

func TestEnvOverrides_ignores_malformed(t *testing.T) {
	t.Setenv("UCOMPARISON_SERVER_PORT", "not-a-port")
	t.Setenv("UCOMPARISON_SESSION_TTL", "soon")

	cfg, err := Load("testdata/valid.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want file value 9090", cfg.Server.Port)
	}
	if cfg.Session.TTL != 10*time.Minute {
		t.Errorf("Session.TTL = %v, want file value 10m", cfg.Session.TTL)
	}
}

func TestValidate_invalid_port(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() with port 0 should return error")
	}
}

func TestValidate_rate_limit(t *testing.T) {
	cfg := Defaults()
	cfg.RateLimit.Burst = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() with zero burst should return error")
	}

	cfg.RateLimit.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with rate limiting disabled error = %v", err)
	}
}

func TestValidate_log_format(t *testing.T) {
	for _, format := range []string{"", "json", "console"} {
		cfg := Defaults()
		cfg.Observability.LogFormat = format
		if err := cfg.Validate(); err != nil {
			t.Errorf("format %q: Validate() error = %v", format, err)
		}
	}

	cfg := Defaults()
	cfg.Observability.LogFormat = "logfmt"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "log_format") {
		t.Errorf("Validate() error = %v, want log_format error", err)
	}
}

func TestValidate_tracing_exporter(t *testing.T) {
	cfg := Defaults()
	cfg.Observability.Tracing.Exporter = "none"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	cfg.Observability.Tracing.Exporter = "zipkin"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "exporter") {
		t.Errorf("Validate() error = %v, want exporter error", err)
	}
}
