// Package mocks provides mock implementations of the ports used by the console services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	api := mocks.NewMockAuthAPI(ctrl)
//	api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(resp, nil)
package mocks

// Generate mocks for the session and auth ports from internal/ports.
// This creates MockAuthAPI (Login, Register), MockSessionPersister (Save, Load, Clear)
// and MockTokenSource (Token).
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/target/crud-console/internal/ports AuthAPI,SessionPersister,TokenSource
