package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/crud-console/config"
	"github.com/target/crud-console/internal/apiclient"
	"github.com/target/crud-console/internal/observability/statsd"
	"github.com/target/crud-console/internal/ports"
	"github.com/target/crud-console/internal/resources"
	"github.com/target/crud-console/internal/service"
)

// App holds the wired console services.
type App struct {
	Config    config.AppConfig
	Logger    *slog.Logger
	Auth      *service.AuthService
	Transport *apiclient.Transport
	Resources *resources.Registry
	Metrics   *statsd.Client
	// Now is the clock shared with the session service.
	Now func() time.Time

	closers []func() error
}

// AppDeps groups dependencies for NewApp.
type AppDeps struct {
	Config config.AppConfig
	Logger *slog.Logger
	// Sessions overrides the configured session store.
	Sessions ports.SessionPersister
	// Now overrides the session clock.
	Now func() time.Time
}

// NewApp wires session storage, auth, the data transport and the resource
// registry. Close must be called to release Redis and StatsD connections.
func NewApp(ctx context.Context, deps AppDeps) (*App, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	app := &App{Config: cfg, Logger: logger, Now: deps.Now}
	if app.Now == nil {
		app.Now = time.Now
	}

	app.Metrics = buildObservability(ctx, logger, cfg.Observability)
	app.closers = append(app.closers, app.Metrics.Close)

	sessions := deps.Sessions
	if sessions == nil {
		store, closeStore, err := BuildSessionStore(ctx, SessionStoreConfig{
			Session: cfg.Session,
			Redis:   cfg.Redis,
			Logger:  logger,
		})
		if err != nil {
			return nil, errors.Join(err, app.Close())
		}
		sessions = store
		app.closers = append(app.closers, closeStore)
	}

	app.Auth = BuildAuthService(AuthConfig{
		API:      cfg.API,
		Sessions: sessions,
		Metrics:  app.Metrics,
		Logger:   logger,
		Now:      app.Now,
	})

	app.Transport = BuildTransport(TransportConfig{
		API:            cfg.API,
		Tokens:         app.Auth,
		OnUnauthorized: app.Auth.HandleUnauthorized,
		Metrics:        app.Metrics,
		Logger:         logger,
	})

	app.Resources = resources.NewRegistry(app.Transport, resources.Options{
		EmployeePath:   cfg.Resources.EmployeePath,
		ShipperPath:    cfg.Resources.ShipperPath,
		CulturePath:    cfg.Resources.CulturePath,
		DepartmentPath: cfg.Resources.DepartmentPath,
		CultureIDWidth: cfg.Resources.CultureIDWidth,
		ProbePath:      cfg.Resources.ProbePath,
		Logger:         logger,
	})

	return app, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// buildObservability configures the metrics sink. A failure to start it is
// logged and metrics stay off.
func buildObservability(ctx context.Context, logger *slog.Logger, cfg config.ObservabilityConfig) *statsd.Client {
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(ctx, statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  logger,
		})
		if err == nil {
			return client
		}
		logger.Error("failed to initialise statsd client", "error", fmt.Errorf("statsd: %w", err))
	}
	disabled, _ := statsd.NewClient(ctx, statsd.Config{Enabled: false, Logger: logger})
	return disabled
}
