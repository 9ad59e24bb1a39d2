package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID       uuid.UUID
	Username string
	Role     Role
}

// IsAdmin reports whether the principal may run admin-only operations.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller, if the request was authenticated.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// RequirePrincipal is PrincipalFrom for routes that need a caller.
func RequirePrincipal(ctx context.Context) (Principal, error) {
	const op = "auth.RequirePrincipal"

	p, ok := PrincipalFrom(ctx)
	if !ok {
		return Principal{}, errx.E(op, errx.Unauthorized, errors.New("authentication required"))
	}
	return p, nil
}
