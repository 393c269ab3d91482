package config

import (
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.API.BaseURL != "http://localhost:5000" {
		t.Errorf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.APIKeyHeader != "ApiKey" {
		t.Errorf("unexpected api key header %q", cfg.API.APIKeyHeader)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("unexpected timeout %v", cfg.API.Timeout)
	}
	if cfg.API.AuthPath != "/api/Auth" {
		t.Errorf("unexpected auth path %q", cfg.API.AuthPath)
	}
	if cfg.Resources.DepartmentPath != "/api/Department" || cfg.Resources.EmployeePath != "/Employee" {
		t.Errorf("unexpected resource paths %#v", cfg.Resources)
	}
	if cfg.Resources.CultureIDWidth != 6 {
		t.Errorf("unexpected culture id width %d", cfg.Resources.CultureIDWidth)
	}
	if cfg.Session.Store != SessionStoreFile {
		t.Errorf("unexpected session store %q", cfg.Session.Store)
	}
	if cfg.Session.ExpiryWarning != 5*time.Minute {
		t.Errorf("unexpected expiry warning %v", cfg.Session.ExpiryWarning)
	}
	if cfg.Observability.Metrics.IsEnabled() {
		t.Errorf("metrics should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", " https://api.example.com/ ")
	t.Setenv("API_KEY", "k-123")
	t.Setenv("API_KEY_HEADER", "X-Api-Key")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("API_RATE_LIMIT", "2.5")
	t.Setenv("API_RATE_BURST", "0")
	t.Setenv("API_AUTH_PATH", "auth/")
	t.Setenv("RESOURCE_CULTURE_PATH", "v2/Culture/")
	t.Setenv("RESOURCE_CULTURE_ID_WIDTH", "-1")
	t.Setenv("SESSION_STORE", "REDIS")
	t.Setenv("SESSION_REDIS_PREFIX", "team:")
	t.Setenv("REQUIRE_WRITER_ROLE", "true")
	t.Setenv("REDIS_URI", "redis://cache:6379/2")
	t.Setenv("REDIS_CLUSTER_NODES", "a:1,b:2")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	expectedAPI := APIConfig{
		BaseURL:      "https://api.example.com",
		APIKey:       "k-123",
		APIKeyHeader: "X-Api-Key",
		Timeout:      5 * time.Second,
		RateLimit:    2.5,
		RateBurst:    1,
		UserAgent:    "crudctl",
		AuthPath:     "/auth",
	}
	if !reflect.DeepEqual(cfg.API, expectedAPI) {
		t.Fatalf("unexpected api configuration:\nexpected: %#v\ngot:      %#v", expectedAPI, cfg.API)
	}
	if cfg.Resources.CulturePath != "/v2/Culture" || cfg.Resources.CultureIDWidth != -1 {
		t.Errorf("unexpected culture settings %#v", cfg.Resources)
	}
	if cfg.Session.Store != SessionStoreRedis || cfg.Session.KeyPrefix != "team:" || !cfg.Session.RequireWriterRole {
		t.Errorf("unexpected session settings %#v", cfg.Session)
	}
	if !reflect.DeepEqual(cfg.Redis.ClusterNodes, []string{"a:1", "b:2"}) {
		t.Errorf("unexpected cluster nodes %#v", cfg.Redis.ClusterNodes)
	}
	if cfg.Observability.Logging.SlogLevel() != slog.LevelDebug || cfg.Observability.Logging.Format != "json" {
		t.Errorf("unexpected logging settings %#v", cfg.Observability.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config should validate: %v", err)
	}
}

func TestAppConfig_ParseInvalidStore(t *testing.T) {
	t.Setenv("SESSION_STORE", "cookie")

	var cfg AppConfig
	if err := env.Parse(&cfg); err == nil {
		t.Fatalf("expected invalid session store to fail parsing")
	}
}

func TestAppConfig_Validate(t *testing.T) {
	valid := func() AppConfig {
		return AppConfig{
			API:     APIConfig{BaseURL: "http://localhost:5000"},
			Session: SessionConfig{Store: SessionStoreFile, WriterRole: "admin"},
			Redis:   RedisConfig{URI: "localhost:6379"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "missing base url", mutate: func(c *AppConfig) { c.API.BaseURL = "" }, wantErr: "API_BASE_URL is required"},
		{name: "bad scheme", mutate: func(c *AppConfig) { c.API.BaseURL = "ftp://x" }, wantErr: "http or https"},
		{name: "no host", mutate: func(c *AppConfig) { c.API.BaseURL = "http://" }, wantErr: "host"},
		{name: "unknown store", mutate: func(c *AppConfig) { c.Session.Store = "cookie" }, wantErr: "SESSION_STORE"},
		{
			name:    "writer role required but empty",
			mutate:  func(c *AppConfig) { c.Session.RequireWriterRole = true; c.Session.WriterRole = "" },
			wantErr: "SESSION_WRITER_ROLE",
		},
		{
			name: "redis checked only for redis store",
			mutate: func(c *AppConfig) {
				c.Redis.UseCluster, c.Redis.UseSentinel = true, true
			},
		},
		{
			name: "redis conflict",
			mutate: func(c *AppConfig) {
				c.Session.Store = SessionStoreRedis
				c.Redis.UseCluster, c.Redis.UseSentinel = true, true
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "sentinel without nodes",
			mutate: func(c *AppConfig) {
				c.Session.Store = SessionStoreRedis
				c.Redis.UseSentinel = true
			},
			wantErr: "REDIS_SENTINEL_NODES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSessionStoreKind_UnmarshalText(t *testing.T) {
	var k SessionStoreKind
	for _, in := range []string{"file", " Memory ", "REDIS"} {
		if err := k.UnmarshalText([]byte(in)); err != nil {
			t.Fatalf("unmarshal %q: %v", in, err)
		}
	}
	if k != SessionStoreRedis {
		t.Fatalf("expected redis, got %q", k)
	}
	if err := k.UnmarshalText([]byte("disk")); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestSessionConfig_Sanitize(t *testing.T) {
	cfg := SessionConfig{KeyPrefix: " ", ExpiryWarning: -time.Second, WriterRole: " admin "}
	cfg.Sanitize()

	if cfg.Store != SessionStoreFile {
		t.Errorf("expected file store default, got %q", cfg.Store)
	}
	if cfg.KeyPrefix != "crudctl:session:" {
		t.Errorf("unexpected prefix %q", cfg.KeyPrefix)
	}
	if cfg.ExpiryWarning != 5*time.Minute {
		t.Errorf("unexpected expiry warning %v", cfg.ExpiryWarning)
	}
	if cfg.WriterRole != "admin" {
		t.Errorf("expected trimmed writer role, got %q", cfg.WriterRole)
	}
}

func TestAPIConfig_Sanitize(t *testing.T) {
	cfg := APIConfig{BaseURL: "http://x/", Timeout: -1, RateLimit: -3, RateBurst: -1}
	cfg.Sanitize()

	if cfg.BaseURL != "http://x" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.BaseURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.Timeout)
	}
	if cfg.RateLimit != 0 || cfg.RateBurst != 1 {
		t.Errorf("unexpected rate settings %v/%d", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.APIKeyHeader != "ApiKey" || cfg.AuthPath != "/api/Auth" {
		t.Errorf("unexpected defaults %#v", cfg)
	}
}

func TestLoggingConfig_Sanitize(t *testing.T) {
	tests := []struct {
		level, format string
		want          slog.Level
		wantFormat    string
	}{
		{level: "debug", format: "JSON", want: slog.LevelDebug, wantFormat: "json"},
		{level: " Info ", format: "text", want: slog.LevelInfo, wantFormat: "text"},
		{level: "error", format: "", want: slog.LevelError, wantFormat: "text"},
		{level: "verbose", format: "xml", want: slog.LevelWarn, wantFormat: "text"},
	}
	for _, tt := range tests {
		cfg := LoggingConfig{Level: tt.level, Format: tt.format}
		cfg.Sanitize()
		if cfg.SlogLevel() != tt.want || cfg.Format != tt.wantFormat {
			t.Errorf("%q/%q: got %v/%q", tt.level, tt.format, cfg.SlogLevel(), cfg.Format)
		}
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
	if cfg.Prefix != "crudctl" {
		t.Fatalf("expected default prefix, got %q", cfg.Prefix)
	}
}
