package bootstrap

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/target/crud-console/config"
	"github.com/target/crud-console/internal/apiclient"
	"github.com/target/crud-console/internal/observability/statsd"
	"github.com/target/crud-console/internal/ports"
)

// TransportConfig contains what BuildTransport needs beyond the API settings.
type TransportConfig struct {
	API            config.APIConfig
	Tokens         ports.TokenSource
	OnUnauthorized func(ctx context.Context)
	Metrics        statsd.Sink
	Logger         *slog.Logger
}

// BuildTransport creates the shared backend transport.
func BuildTransport(cfg TransportConfig) *apiclient.Transport {
	return apiclient.NewTransport(apiclient.TransportOptions{
		BaseURL:        cfg.API.BaseURL,
		APIKeyHeader:   cfg.API.APIKeyHeader,
		APIKey:         cfg.API.APIKey,
		HTTPClient:     buildHTTPClient(cfg.API),
		Timeout:        cfg.API.Timeout,
		UserAgent:      cfg.API.UserAgent,
		Tokens:         cfg.Tokens,
		OnUnauthorized: cfg.OnUnauthorized,
		Limiter:        buildLimiter(cfg.API),
		Metrics:        cfg.Metrics,
		Logger:         cfg.Logger,
	})
}

func buildHTTPClient(cfg config.APIConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		//nolint:gosec // opt-in for self-signed development backends.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: transport}
}

func buildLimiter(cfg config.APIConfig) *rate.Limiter {
	if cfg.RateLimit <= 0 {
		return nil
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
}
