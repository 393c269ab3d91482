package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/crud-console/config"
	"github.com/target/crud-console/internal/adapters/filestore"
	"github.com/target/crud-console/internal/adapters/memory"
	redisadapter "github.com/target/crud-console/internal/adapters/redis"
	"github.com/target/crud-console/internal/ports"
)

// SessionStoreConfig contains configuration for the session persister.
type SessionStoreConfig struct {
	Session config.SessionConfig
	Redis   config.RedisConfig
	Logger  *slog.Logger
}

// BuildSessionStore returns the configured persister and a func releasing
// whatever it holds open. The closer is never nil.
//
//nolint:ireturn // the store kind is chosen at runtime.
func BuildSessionStore(ctx context.Context, cfg SessionStoreConfig) (ports.SessionPersister, func() error, error) {
	noop := func() error { return nil }
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Session.Store {
	case config.SessionStoreMemory:
		return memory.NewSessionStore(), noop, nil

	case config.SessionStoreRedis:
		client, err := ConnectRedis(ctx, RedisConnConfig{RedisConfig: cfg.Redis, Logger: logger})
		if err != nil {
			return nil, noop, fmt.Errorf("connect session redis: %w", err)
		}
		logger.Debug("using redis session store", "prefix", cfg.Session.KeyPrefix)
		return redisadapter.NewSessionStoreWithPrefix(client, cfg.Session.KeyPrefix), client.Close, nil

	case config.SessionStoreFile, "":
		path := cfg.Session.FilePath
		if path == "" {
			p, err := filestore.DefaultPath()
			if err != nil {
				return nil, noop, err
			}
			path = p
		}
		logger.Debug("using file session store", "path", path)
		return filestore.NewSessionStore(path), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}
