package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionStoreKind selects where the session is persisted.
type SessionStoreKind string

const (
	// SessionStoreFile keeps the session in a 0600 JSON file (default).
	SessionStoreFile SessionStoreKind = "file"
	// SessionStoreRedis shares the session through Redis.
	SessionStoreRedis SessionStoreKind = "redis"
	// SessionStoreMemory keeps the session for the life of the process only.
	SessionStoreMemory SessionStoreKind = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionStoreKind.
func (k *SessionStoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "file", "redis", "memory":
		*k = SessionStoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionStoreKind: %q (valid options: file, redis, memory)", v)
	}
}

// SessionConfig groups session persistence and authorization settings.
type SessionConfig struct {
	Store SessionStoreKind `env:"SESSION_STORE" envDefault:"file"`

	// FilePath overrides the session file location. Empty means the user
	// config directory.
	FilePath string `env:"SESSION_FILE"`

	// KeyPrefix namespaces the Redis keys.
	KeyPrefix string `env:"SESSION_REDIS_PREFIX" envDefault:"crudctl:session:"`

	// ExpiryWarning is how close to expiration whoami starts warning.
	ExpiryWarning time.Duration `env:"SESSION_EXPIRY_WARNING" envDefault:"5m"`

	// WriterRole is required for create, update and delete when
	// RequireWriterRole is set.
	WriterRole        string `env:"SESSION_WRITER_ROLE" envDefault:"admin"`
	RequireWriterRole bool   `env:"REQUIRE_WRITER_ROLE" envDefault:"false"`
}

// Sanitize applies defaults to empty or out-of-range values.
func (c *SessionConfig) Sanitize() {
	if c.Store == "" {
		c.Store = SessionStoreFile
	}
	c.FilePath = strings.TrimSpace(c.FilePath)
	if c.KeyPrefix = strings.TrimSpace(c.KeyPrefix); c.KeyPrefix == "" {
		c.KeyPrefix = "crudctl:session:"
	}
	if c.ExpiryWarning <= 0 {
		c.ExpiryWarning = 5 * time.Minute
	}
	c.WriterRole = strings.TrimSpace(c.WriterRole)
}

// Validate checks the store kind and the writer role requirement.
func (c *SessionConfig) Validate() error {
	switch c.Store {
	case SessionStoreFile, SessionStoreRedis, SessionStoreMemory:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.Store)
	}
	if c.RequireWriterRole && c.WriterRole == "" {
		return errors.New("REQUIRE_WRITER_ROLE needs SESSION_WRITER_ROLE")
	}
	return nil
}
