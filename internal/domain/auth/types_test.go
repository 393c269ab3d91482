package auth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/crud-console/internal/errors"
)

func TestInfo_HasRole(t *testing.T) {
	info := Info{UserName: "alice", Roles: []string{"admin"}}
	assert.True(t, info.HasRole("admin"))
	assert.False(t, info.HasRole("user"))
	assert.False(t, Info{}.HasRole("admin"))
}

func TestInfo_Expired(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	info := Info{TokenExpiration: exp}

	assert.False(t, info.Expired(exp.Add(-time.Second)))
	assert.False(t, info.Expired(exp), "valid at the exact expiration instant")
	assert.True(t, info.Expired(exp.Add(time.Millisecond)))
}

func TestInfo_JSONRoundTrip(t *testing.T) {
	exp := time.Date(2030, 1, 1, 12, 30, 0, 123_000_000, time.UTC)
	in := Info{UserName: "alice", Roles: []string{"user", "admin"}, TokenExpiration: exp}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tokenExpiration":"2030-01-01T12:30:00.123Z"`)

	var out Info
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in.UserName, out.UserName)
	assert.ElementsMatch(t, in.Roles, out.Roles)
	assert.True(t, in.TokenExpiration.Equal(out.TokenExpiration))
}

func TestLoginResponse_DecodesBackendShape(t *testing.T) {
	body := `{"userName":"alice","password":null,"token":{"token":"abc","expiration":"2030-01-01T00:00:00Z"},"roles":["admin"]}`

	var resp LoginResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "alice", resp.UserName)
	assert.Equal(t, "abc", resp.Token.Token)
	assert.Equal(t, []string{"admin"}, resp.Roles)
	exp, ok := resp.Token.ExpiresAt()
	require.True(t, ok)
	assert.True(t, exp.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestTokenInfo_ExpiresAt(t *testing.T) {
	exp, ok := TokenInfo{Expiration: "2030-06-01T08:00:00"}.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, time.UTC, exp.Location())
	assert.Equal(t, 8, exp.Hour())

	_, ok = TokenInfo{}.ExpiresAt()
	assert.False(t, ok)
	_, ok = TokenInfo{Expiration: "tomorrow"}.ExpiresAt()
	assert.False(t, ok)
}

func TestCredentials_Validate(t *testing.T) {
	require.NoError(t, Credentials{UserName: "alice", Password: "x"}.Validate())

	err := Credentials{UserName: " "}.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	fields := apperrors.GetFields(err)
	assert.Contains(t, fields, "userName")
	assert.Contains(t, fields, "password")
}

func TestRegistration_Validate(t *testing.T) {
	require.NoError(t, Registration{UserName: "bob", Email: "bob@example.com", Password: "secret1"}.Validate())

	err := Registration{UserName: "bob", Email: "not-an-email", Password: "123"}.Validate()
	require.Error(t, err)
	fields := apperrors.GetFields(err)
	assert.Equal(t, "Email must be a valid email address.", fields["email"])
	assert.Equal(t, "Password must be between 6 and 256 characters.", fields["password"])
}
