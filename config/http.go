package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const defaultAPITimeout = 30 * time.Second

// APIConfig contains backend HTTP client configuration.
type APIConfig struct {
	// BaseURL is the backend root every resource path is appended to.
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:5000"`

	// APIKey is sent on every request in APIKeyHeader when set.
	APIKey       string `env:"API_KEY"`
	APIKeyHeader string `env:"API_KEY_HEADER" envDefault:"ApiKey"`

	// Timeout bounds each request.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`

	// RateLimit caps requests per second from this process; zero disables it.
	RateLimit float64 `env:"API_RATE_LIMIT" envDefault:"0"`
	RateBurst int     `env:"API_RATE_BURST" envDefault:"5"`

	// InsecureSkipVerify disables TLS certificate checks (self-signed dev backends).
	InsecureSkipVerify bool `env:"API_INSECURE_SKIP_VERIFY" envDefault:"false"`

	UserAgent string `env:"API_USER_AGENT" envDefault:"crudctl"`

	// AuthPath is where the login and register endpoints live.
	AuthPath string `env:"API_AUTH_PATH" envDefault:"/api/Auth"`
}

// Sanitize applies guardrails to API configuration values.
func (c *APIConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.APIKeyHeader = strings.TrimSpace(c.APIKeyHeader)
	if c.APIKeyHeader == "" {
		c.APIKeyHeader = "ApiKey"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultAPITimeout
	}
	if c.RateLimit < 0 {
		c.RateLimit = 0
	}
	if c.RateBurst < 1 {
		c.RateBurst = 1
	}
	c.AuthPath = normalizePath(c.AuthPath, "/api/Auth")
}

// Validate checks that BaseURL is an absolute http(s) URL.
func (c *APIConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid API_BASE_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("API_BASE_URL must include a host")
	}
	return nil
}

// normalizePath trims p and gives it a single leading slash and no trailing one.
func normalizePath(p, def string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return def
	}
	return "/" + p
}
