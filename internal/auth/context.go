package auth

import (
	"context"

	"github.com/spec-kit/hospital-records/internal/domain"
)

type identityContextKey struct{}

// ContextWithIdentity attaches the authenticated identity to ctx.
func ContextWithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromUserContext extracts an identity attached by ContextWithIdentity.
func IdentityFromUserContext(ctx context.Context) (domain.Identity, bool) {
	if ctx == nil {
		return domain.Identity{}, false
	}
	identity, ok := ctx.Value(identityContextKey{}).(domain.Identity)
	return identity, ok
}
