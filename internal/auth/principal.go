package auth

import (
	"context"

	"fintrack/internal/core"
)

// Principal is the authenticated identity attached to a request,
// constructed once per request from a verified token.
type Principal struct {
	UserID   int64
	Username string
	RoleID   int64
}

// IsAdmin reports whether the principal reaches the admin surface.
func (p Principal) IsAdmin() bool {
	return p.RoleID == core.RoleAdmin
}

type principalKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal from a request context.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
