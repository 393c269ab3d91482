package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/target/crud-console/internal/domain/auth"
	apperrors "github.com/target/crud-console/internal/errors"
	"github.com/target/crud-console/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthAPI          = (*FakeAuthAPI)(nil)
	_ ports.SessionPersister = (*SessionPersisterFuncs)(nil)
)

// User is an account known to FakeAuthAPI.
type User struct {
	Password string
	Email    string
	Roles    []string
}

// FakeAuthAPI simulates the login backend with deterministic tokens.
type FakeAuthAPI struct {
	LoginFunc    func(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginResponse, error)
	RegisterFunc func(ctx context.Context, reg domainauth.Registration) error

	// TokenTTL is added to Now for the issued expiration. Defaults to one hour.
	TokenTTL time.Duration
	Now      func() time.Time

	mu            sync.Mutex
	users         map[string]User
	loginCalls    int
	registerCalls int
}

// NewFakeAuthAPI creates a FakeAuthAPI with no users.
func NewFakeAuthAPI() *FakeAuthAPI {
	return &FakeAuthAPI{users: make(map[string]User)}
}

// AddUser registers an account directly.
func (f *FakeAuthAPI) AddUser(name string, u User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.users == nil {
		f.users = make(map[string]User)
	}
	f.users[name] = u
}

func (f *FakeAuthAPI) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginResponse, error) {
	f.mu.Lock()
	f.loginCalls++
	n := f.loginCalls
	user, ok := f.users[creds.UserName]
	f.mu.Unlock()

	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, creds)
	}
	if !ok || user.Password != creds.Password {
		return domainauth.LoginResponse{}, apperrors.Unauthorized("invalid user name or password")
	}

	ttl := f.TokenTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return domainauth.LoginResponse{
		UserName: creds.UserName,
		Token: domainauth.TokenInfo{
			Token:      fmt.Sprintf("token-%s-%d", creds.UserName, n),
			Expiration: now().Add(ttl).UTC().Format(time.RFC3339Nano),
		},
		Roles: roles,
	}, nil
}

func (f *FakeAuthAPI) Register(ctx context.Context, reg domainauth.Registration) error {
	f.mu.Lock()
	f.registerCalls++
	f.mu.Unlock()

	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, reg)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[reg.UserName]; exists {
		return apperrors.New(apperrors.ErrCodeConflict, "user already exists")
	}
	if f.users == nil {
		f.users = make(map[string]User)
	}
	f.users[reg.UserName] = User{Password: reg.Password, Email: reg.Email, Roles: []string{string(domainauth.RoleUser)}}
	return nil
}

// LoginCalls returns how many times Login was called.
func (f *FakeAuthAPI) LoginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls
}

// RegisterCalls returns how many times Register was called.
func (f *FakeAuthAPI) RegisterCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registerCalls
}

// SessionPersisterFuncs forwards to its function fields; nil fields behave
// like an empty store.
type SessionPersisterFuncs struct {
	SaveFunc  func(ctx context.Context, token string, info domainauth.Info) error
	LoadFunc  func(ctx context.Context) (string, domainauth.Info, error)
	ClearFunc func(ctx context.Context) error
}

func (s *SessionPersisterFuncs) Save(ctx context.Context, token string, info domainauth.Info) error {
	if s.SaveFunc != nil {
		return s.SaveFunc(ctx, token, info)
	}
	return nil
}

func (s *SessionPersisterFuncs) Load(ctx context.Context) (string, domainauth.Info, error) {
	if s.LoadFunc != nil {
		return s.LoadFunc(ctx)
	}
	return "", domainauth.Info{}, ports.ErrNoSession
}

func (s *SessionPersisterFuncs) Clear(ctx context.Context) error {
	if s.ClearFunc != nil {
		return s.ClearFunc(ctx)
	}
	return nil
}
