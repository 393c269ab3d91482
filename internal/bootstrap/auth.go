package bootstrap

import (
	"log/slog"
	"time"

	"github.com/target/crud-console/config"
	"github.com/target/crud-console/internal/apiclient"
	"github.com/target/crud-console/internal/observability/statsd"
	"github.com/target/crud-console/internal/ports"
	"github.com/target/crud-console/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	API      config.APIConfig
	Sessions ports.SessionPersister
	Metrics  statsd.Sink
	Logger   *slog.Logger
	// Now overrides the session clock (tests).
	Now func() time.Time
}

// BuildAuthService creates the session service. Login and register go over
// their own transport without a bearer token or 401 callback: a rejected
// login is reported to the caller, not treated as an expired session.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	transport := BuildTransport(TransportConfig{
		API:     cfg.API,
		Metrics: cfg.Metrics,
		Logger:  cfg.Logger,
	})
	return service.NewAuthService(service.AuthServiceOptions{
		API:      apiclient.NewAuthClient(transport, cfg.API.AuthPath),
		Sessions: cfg.Sessions,
		Now:      cfg.Now,
		Logger:   cfg.Logger,
	})
}
