package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/crud-console/internal/domain/auth"
	apperrors "github.com/target/crud-console/internal/errors"
	"github.com/target/crud-console/internal/ports"
)

func TestFakeAuthAPI_Login(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	api := NewFakeAuthAPI()
	api.Now = func() time.Time { return now }
	api.AddUser("alice", User{Password: "secret", Roles: []string{"admin"}})
	ctx := context.Background()

	resp, err := api.Login(ctx, domainauth.Credentials{UserName: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.UserName)
	assert.Equal(t, "token-alice-1", resp.Token.Token)
	assert.Equal(t, []string{"admin"}, resp.Roles)
	exp, ok := resp.Token.ExpiresAt()
	require.True(t, ok)
	assert.True(t, now.Add(time.Hour).Equal(exp))

	resp, err = api.Login(ctx, domainauth.Credentials{UserName: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "token-alice-2", resp.Token.Token)

	_, err = api.Login(ctx, domainauth.Credentials{UserName: "alice", Password: "wrong"})
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, 3, api.LoginCalls())
}

func TestFakeAuthAPI_Register(t *testing.T) {
	api := NewFakeAuthAPI()
	ctx := context.Background()
	reg := domainauth.Registration{UserName: "bob", Email: "bob@example.com", Password: "secret1"}

	require.NoError(t, api.Register(ctx, reg))
	err := api.Register(ctx, reg)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 2, api.RegisterCalls())

	resp, err := api.Login(ctx, domainauth.Credentials{UserName: "bob", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, resp.Roles)
}

func TestFakeAuthAPI_CustomFuncs(t *testing.T) {
	boom := errors.New("boom")
	api := &FakeAuthAPI{
		LoginFunc: func(context.Context, domainauth.Credentials) (domainauth.LoginResponse, error) {
			return domainauth.LoginResponse{}, boom
		},
		RegisterFunc: func(context.Context, domainauth.Registration) error { return boom },
	}
	ctx := context.Background()

	_, err := api.Login(ctx, domainauth.Credentials{UserName: "x", Password: "y"})
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, api.Register(ctx, domainauth.Registration{}), boom)
	assert.Equal(t, 1, api.LoginCalls())
	assert.Equal(t, 1, api.RegisterCalls())
}

func TestSessionPersisterFuncs_Defaults(t *testing.T) {
	s := &SessionPersisterFuncs{}
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "abc", domainauth.Info{}))
	_, _, err := s.Load(ctx)
	require.ErrorIs(t, err, ports.ErrNoSession)
	require.NoError(t, s.Clear(ctx))
}
