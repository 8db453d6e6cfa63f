package ws

import "errors"

var (
	// ErrUserConnectionLimit is returned by Connect when the user already
	// holds the maximum number of live connections.
	ErrUserConnectionLimit = errors.New("per-user connection limit exceeded")

	// ErrTenantConnectionLimit is returned by Connect when the tenant
	// already holds the maximum number of live connections.
	ErrTenantConnectionLimit = errors.New("per-tenant connection limit exceeded")
)
