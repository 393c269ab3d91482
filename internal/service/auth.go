package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/target/crud-console/internal/domain/auth"
	apperrors "github.com/target/crud-console/internal/errors"
	"github.com/target/crud-console/internal/ports"
)

// DefaultExpiryWarning is the IsTokenExpiringSoon threshold used when none is given.
const DefaultExpiryWarning = 5 * time.Minute

// roleClaims are the JWT claim names roles are read from, in order.
var roleClaims = []string{
	"role",
	"roles",
	"http://schemas.microsoft.com/ws/2008/06/identity/claims/role",
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	API      ports.AuthAPI
	Sessions ports.SessionPersister
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// AuthService owns the client-side session: it logs in against the backend,
// persists the bearer token with its metadata and answers authorization queries.
type AuthService struct {
	api      ports.AuthAPI
	sessions ports.SessionPersister
	now      func() time.Time
	logger   *slog.Logger
}

var _ ports.TokenSource = (*AuthService)(nil)

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		api:      opts.API,
		sessions: opts.Sessions,
		now:      now,
		logger:   logger,
	}
}

// Login exchanges credentials for a token and persists the session. Any
// failure clears whatever session was stored before and is returned.
func (s *AuthService) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.Info, error) {
	info, err := s.login(ctx, creds)
	if err != nil {
		if clearErr := s.Logout(ctx); clearErr != nil {
			err = errors.Join(err, clearErr)
		}
		s.logger.WarnContext(ctx, "login failed", "user", creds.UserName, "error", err)
		return domainauth.Info{}, err
	}
	s.logger.InfoContext(ctx, "logged in", "user", info.UserName, "roles", info.Roles,
		"expires", info.TokenExpiration)
	return info, nil
}

func (s *AuthService) login(ctx context.Context, creds domainauth.Credentials) (domainauth.Info, error) {
	if err := creds.Validate(); err != nil {
		return domainauth.Info{}, err
	}

	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return domainauth.Info{}, fmt.Errorf("login: %w", err)
	}
	if resp.Token.Token == "" {
		return domainauth.Info{}, apperrors.New(apperrors.ErrCodeDecode, "login response carried no token")
	}

	info, err := s.deriveInfo(creds.UserName, resp)
	if err != nil {
		return domainauth.Info{}, err
	}
	if err := s.sessions.Save(ctx, resp.Token.Token, info); err != nil {
		return domainauth.Info{}, fmt.Errorf("save session: %w", err)
	}
	return info, nil
}

// deriveInfo builds session metadata from the login response, falling back
// to unverified token claims for a missing expiration or empty role list.
func (s *AuthService) deriveInfo(fallbackUser string, resp domainauth.LoginResponse) (domainauth.Info, error) {
	info := domainauth.Info{UserName: resp.UserName, Roles: resp.Roles}
	if info.UserName == "" {
		info.UserName = fallbackUser
	}

	exp, hasExp := resp.Token.ExpiresAt()
	if !hasExp || len(info.Roles) == 0 {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(resp.Token.Token, claims); err == nil {
			if !hasExp {
				if t, err := claims.GetExpirationTime(); err == nil && t != nil {
					exp, hasExp = t.Time, true
				}
			}
			if len(info.Roles) == 0 {
				info.Roles = rolesFromClaims(claims)
			}
		}
	}
	if !hasExp {
		return domainauth.Info{}, apperrors.New(apperrors.ErrCodeDecode, "login response carried no usable expiration")
	}
	if info.Roles == nil {
		info.Roles = []string{}
	}
	info.TokenExpiration = exp.UTC()
	return info, nil
}

func rolesFromClaims(claims jwt.MapClaims) []string {
	for _, name := range roleClaims {
		switch v := claims[name].(type) {
		case string:
			if v != "" {
				return []string{v}
			}
		case []any:
			roles := make([]string, 0, len(v))
			for _, r := range v {
				if str, ok := r.(string); ok && str != "" {
					roles = append(roles, str)
				}
			}
			if len(roles) > 0 {
				return roles
			}
		}
	}
	return nil
}

// Register creates an account. It never touches the stored session.
func (s *AuthService) Register(ctx context.Context, reg domainauth.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	if err := s.api.Register(ctx, reg); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.logger.InfoContext(ctx, "registered", "user", reg.UserName)
	return nil
}

// Logout removes the token and metadata. Calling it without a session is fine.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Current returns the stored session metadata without checking expiry.
func (s *AuthService) Current(ctx context.Context) (domainauth.Info, bool) {
	_, info, err := s.sessions.Load(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrNoSession) {
			s.logger.WarnContext(ctx, "load session failed", "error", err)
		}
		return domainauth.Info{}, false
	}
	return info, true
}

// IsAuthenticated reports whether a complete, unexpired session is stored.
// An expired session is cleared before returning false.
func (s *AuthService) IsAuthenticated(ctx context.Context) bool {
	token, info, err := s.sessions.Load(ctx)
	if err != nil || token == "" {
		return false
	}
	if info.Expired(s.now()) {
		s.logger.InfoContext(ctx, "session expired", "user", info.UserName, "expired_at", info.TokenExpiration)
		if err := s.Logout(ctx); err != nil {
			s.logger.WarnContext(ctx, "clear expired session failed", "error", err)
		}
		return false
	}
	return true
}

// HasRole reports whether the stored session carries role.
func (s *AuthService) HasRole(ctx context.Context, role string) bool {
	info, ok := s.Current(ctx)
	return ok && info.HasRole(role)
}

// Roles returns the stored roles, or an empty slice.
func (s *AuthService) Roles(ctx context.Context) []string {
	info, ok := s.Current(ctx)
	if !ok || info.Roles == nil {
		return []string{}
	}
	return info.Roles
}

// UserName returns the stored user name, or "".
func (s *AuthService) UserName(ctx context.Context) string {
	info, _ := s.Current(ctx)
	return info.UserName
}

// TokenExpiration returns the stored expiration instant.
func (s *AuthService) TokenExpiration(ctx context.Context) (time.Time, bool) {
	info, ok := s.Current(ctx)
	return info.TokenExpiration, ok
}

// IsTokenExpiringSoon reports whether a session exists and expires within
// threshold. A non-positive threshold means DefaultExpiryWarning.
func (s *AuthService) IsTokenExpiringSoon(ctx context.Context, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultExpiryWarning
	}
	token, info, err := s.sessions.Load(ctx)
	if err != nil || token == "" {
		return false
	}
	return info.TokenExpiration.Sub(s.now()) <= threshold
}

// Token returns the stored bearer token, or "" without a session.
func (s *AuthService) Token(ctx context.Context) (string, error) {
	token, _, err := s.sessions.Load(ctx)
	if errors.Is(err, ports.ErrNoSession) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return token, nil
}

// HandleUnauthorized is the transport's 401 callback: the backend rejected
// the token, so the session is dropped and the user must log in again.
func (s *AuthService) HandleUnauthorized(ctx context.Context) {
	user := s.UserName(ctx)
	if err := s.Logout(ctx); err != nil {
		s.logger.WarnContext(ctx, "clear rejected session failed", "error", err)
	}
	s.logger.WarnContext(ctx, "login required", "user", user, "reason", "token rejected by backend")
}
