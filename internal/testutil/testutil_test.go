package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "y"} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.True(t, envBool("TESTUTIL_FLAG"), v)
	}
	t.Setenv("TESTUTIL_FLAG", "off")
	assert.False(t, envBool("TESTUTIL_FLAG"))
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TESTUTIL_VALUE", "")
	assert.Equal(t, "fallback", getEnvOrDefault("TESTUTIL_VALUE", "fallback"))
	t.Setenv("TESTUTIL_VALUE", "set")
	assert.Equal(t, "set", getEnvOrDefault("TESTUTIL_VALUE", "fallback"))
}

func TestClock(t *testing.T) {
	c := NewClock(TestTime())
	c.Advance(time.Minute)
	assert.Equal(t, TestTime().Add(time.Minute), c.Now())
	c.Set(TestTime())
	assert.Equal(t, TestTime(), FixedTimeFunc(c.Now())())
}

func TestRESTBackend_CRUD(t *testing.T) {
	b := NewRESTBackend(t, Table{Path: "/Employee", KeyField: "employeeId", AutoIncrement: true})
	b.Seed("/Employee", map[string]any{"employeeId": 3, "name": "C"})

	resp := do(t, http.MethodPost, b.URL()+"/Employee", `{"employeeId":0,"name":"D"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.InDelta(t, 4.0, created["employeeId"], 0)

	resp = do(t, http.MethodGet, b.URL()+"/Employee/4", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodDelete, b.URL()+"/Employee/4", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodGet, b.URL()+"/Employee/4", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	b.FailNext(http.MethodGet, "/Employee", http.StatusInternalServerError)
	resp = do(t, http.MethodGet, b.URL()+"/Employee", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	resp = do(t, http.MethodGet, b.URL()+"/Employee", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 2, b.CountRequests(http.MethodGet, "/Employee"))
	assert.Len(t, b.Rows("/Employee"), 1)
}

func TestRESTBackend_Login(t *testing.T) {
	b := NewRESTBackend(t)
	b.AddUser("alice", LoginUser{Password: "pw", Roles: []string{"admin"}, Expiration: "2030-01-01T00:00:00"})

	resp := do(t, http.MethodPost, b.URL()+"/api/Auth/login", `{"userName":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"token":"token-alice"`)

	resp = do(t, http.MethodPost, b.URL()+"/api/Auth/login", `{"userName":"alice","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
