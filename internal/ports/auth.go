// Package ports defines interfaces (hexagonal ports) for session and auth behavior.
// Implementations live in internal/adapters and internal/apiclient; orchestration in internal/service.
package ports

import (
	"context"
	"errors"

	domainauth "github.com/target/crud-console/internal/domain/auth"
)

// ErrNoSession is returned by persisters when no complete session is stored.
var ErrNoSession = errors.New("no session")

// SessionPersister stores the bearer token and its metadata as one unit.
// Save and Clear must write or remove both pieces together. Load returns
// ErrNoSession when either piece is missing and removes the orphan.
type SessionPersister interface {
	Save(ctx context.Context, token string, info domainauth.Info) error
	Load(ctx context.Context) (string, domainauth.Info, error)
	Clear(ctx context.Context) error
}

// TokenSource yields the current bearer token. An empty token with a nil
// error means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// AuthAPI is the remote login/registration endpoint.
type AuthAPI interface {
	Login(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginResponse, error)
	Register(ctx context.Context, reg domainauth.Registration) error
}
