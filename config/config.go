package config

import (
	"errors"
	"fmt"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - http.go: backend API client configuration
//   - services.go: resource endpoint paths
//   - auth.go: session storage and authorization
//   - database.go: Redis connection (for the redis session store)
//   - observability.go: logging and metrics
type AppConfig struct {
	// API configures the HTTP client used for every backend call.
	API APIConfig

	// Resources configures the per-resource endpoint paths.
	Resources ResourcesConfig

	// Session configures where the bearer token is kept.
	Session SessionConfig

	// Redis is only dialed when Session.Store is "redis".
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.API.Sanitize()
	c.Resources.Sanitize()
	c.Session.Sanitize()
	c.Observability.Sanitize()
}

// Validate reports every setting that cannot work, joined into one error.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.API.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("api: %w", err))
	}
	if err := c.Session.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("session: %w", err))
	}
	if c.Session.Store == SessionStoreRedis {
		if err := c.Redis.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
