package apiclient

import (
	"context"
	"net/http"
	"strings"

	domainauth "github.com/target/crud-console/internal/domain/auth"
)

// DefaultAuthPath is where the backend mounts its login/register controller.
const DefaultAuthPath = "/api/Auth"

// AuthClient calls the login and registration endpoints. Its transport must
// not carry a token source or 401 hook: a failed login is not an expired session.
type AuthClient struct {
	transport *Transport
	path      string
}

// NewAuthClient binds the auth endpoints under path (DefaultAuthPath when empty).
func NewAuthClient(transport *Transport, path string) *AuthClient {
	path = strings.TrimRight(path, "/")
	if path == "" {
		path = DefaultAuthPath
	}
	return &AuthClient{transport: transport, path: path}
}

// Login exchanges credentials for a token envelope.
func (c *AuthClient) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginResponse, error) {
	var resp domainauth.LoginResponse
	err := c.transport.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     c.path + "/login",
		Body:     creds,
		Resource: "auth",
	}, &resp)
	return resp, err
}

// Register creates a new account. The response body is ignored.
func (c *AuthClient) Register(ctx context.Context, reg domainauth.Registration) error {
	return c.transport.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     c.path + "/register",
		Body:     reg,
		Resource: "auth",
	}, nil)
}
