// Package http provides authentication middleware for the API server.
package http

import (
	"context"

	authDomain "github.com/allisson/envstore/internal/auth/domain"
)

// principalKey is a context key type for storing authenticated principals.
type principalKey struct{}

// WithPrincipal stores an authenticated principal in the context.
func WithPrincipal(ctx context.Context, principal *authDomain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// GetPrincipal retrieves the authenticated principal from the context.
// Returns (principal, true) if present, or (nil, false) if no authentication
// middleware ran on this request.
func GetPrincipal(ctx context.Context) (*authDomain.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(*authDomain.Principal)
	return principal, ok
}
