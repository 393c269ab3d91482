package ports_test

import (
	"testing"

	"github.com/target/crud-console/internal/adapters/filestore"
	"github.com/target/crud-console/internal/adapters/memory"
	redisadapter "github.com/target/crud-console/internal/adapters/redis"
	"github.com/target/crud-console/internal/apiclient"
	"github.com/target/crud-console/internal/mocks"
	"github.com/target/crud-console/internal/ports"
	"github.com/target/crud-console/internal/service"
)

// This test only verifies that adapters and mocks conform to the ports at compile time.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.SessionPersister = (*memory.SessionStore)(nil)
	var _ ports.SessionPersister = (*filestore.SessionStore)(nil)
	var _ ports.SessionPersister = (*redisadapter.SessionStore)(nil)
	var _ ports.SessionPersister = (*mocks.MockSessionPersister)(nil)

	var _ ports.AuthAPI = (*apiclient.AuthClient)(nil)
	var _ ports.AuthAPI = (*mocks.MockAuthAPI)(nil)

	var _ ports.TokenSource = (*service.AuthService)(nil)
	var _ ports.TokenSource = (*mocks.MockTokenSource)(nil)
}
