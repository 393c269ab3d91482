package redis

// Package redis provides Redis-based adapters for the console.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/target/crud-console/internal/domain/auth"
	"github.com/target/crud-console/internal/ports"
)

// DefaultKeyPrefix namespaces the session keys.
const DefaultKeyPrefix = "crudctl:session:"

const (
	tokenKey    = "token"
	userDataKey = "userData"
)

// SessionStore is a Redis-based session store shared by every console
// process pointed at the same Redis. Both keys expire with the token.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, DefaultKeyPrefix)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SessionStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *SessionStore) keys() (string, string) {
	return s.prefix + tokenKey, s.prefix + userDataKey
}

// Save writes both keys in one MULTI/EXEC. An expiration already in the past
// is stored without TTL so the next authentication check clears it.
func (s *SessionStore) Save(ctx context.Context, token string, info domainauth.Info) error {
	if token == "" {
		return errors.New("session token cannot be empty")
	}
	data, err := domainauth.MarshalInfo(info)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := info.TokenExpiration.Sub(s.now())
	if ttl < time.Millisecond {
		ttl = 0
	}
	tk, uk := s.keys()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tk, token, ttl)
		pipe.Set(ctx, uk, data, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

// Load reads both keys at once. If only one is present the orphan is
// deleted and ErrNoSession returned.
func (s *SessionStore) Load(ctx context.Context) (string, domainauth.Info, error) {
	tk, uk := s.keys()
	vals, err := s.client.MGet(ctx, tk, uk).Result()
	if err != nil {
		return "", domainauth.Info{}, fmt.Errorf("redis load session: %w", err)
	}

	token, _ := vals[0].(string)
	data, _ := vals[1].(string)
	if token == "" && data == "" {
		return "", domainauth.Info{}, ports.ErrNoSession
	}
	if token == "" || data == "" {
		return "", domainauth.Info{}, s.discard(ctx)
	}

	info, err := domainauth.UnmarshalInfo([]byte(data))
	if err != nil {
		return "", domainauth.Info{}, s.discard(ctx)
	}
	return token, info, nil
}

// Clear deletes both keys in a single DEL.
func (s *SessionStore) Clear(ctx context.Context) error {
	tk, uk := s.keys()
	if err := s.client.Del(ctx, tk, uk).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) discard(ctx context.Context) error {
	if err := s.Clear(ctx); err != nil {
		return errors.Join(ports.ErrNoSession, err)
	}
	return ports.ErrNoSession
}
