package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of transport/persistence concerns.

import (
	"slices"
	"time"

	"github.com/target/crud-console/internal/validation"
)

// Role is an authorization role granted by the backend.
// Backends are free to define their own; these are the ones the console knows about.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Credentials is the login request body.
type Credentials struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// Validate checks credentials before they are sent.
func (c Credentials) Validate() error {
	return validation.New().
		Validate("userName", c.UserName, validation.Required("User name", 256)).
		Validate("password", c.Password, validation.Required("Password", 256)).
		Err()
}

// Registration is the register request body.
type Registration struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks a registration before it is sent.
func (r Registration) Validate() error {
	return validation.New().
		Validate("userName", r.UserName, validation.Required("User name", 256)).
		Validate("email", r.Email, validation.Email("Email")).
		Validate("password", r.Password, validation.RequiredRange("Password", 6, 256)).
		Err()
}

// TokenInfo is the token envelope returned by the login endpoint.
// Expiration is kept raw because the backend may omit the zone offset.
type TokenInfo struct {
	Token      string `json:"token"`
	Expiration string `json:"expiration"`
}

// ExpiresAt parses Expiration. Zone-less timestamps are read as UTC.
func (t TokenInfo) ExpiresAt() (time.Time, bool) {
	if t.Expiration == "" {
		return time.Time{}, false
	}
	return validation.ParseDate(t.Expiration)
}

// LoginResponse is the login endpoint response. The backend echoes a null
// password field which is ignored.
type LoginResponse struct {
	UserName string    `json:"userName"`
	Token    TokenInfo `json:"token"`
	Roles    []string  `json:"roles"`
}

// Info is the session metadata persisted next to the bearer token.
// TokenExpiration round-trips as an RFC 3339 string.
type Info struct {
	UserName        string    `json:"userName"`
	Roles           []string  `json:"roles"`
	TokenExpiration time.Time `json:"tokenExpiration"`
}

// HasRole reports whether role is among the session roles.
func (i Info) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// Expired reports whether the session is past its expiration at now.
// A session is still valid at the exact expiration instant.
func (i Info) Expired(now time.Time) bool {
	return now.After(i.TokenExpiration)
}
