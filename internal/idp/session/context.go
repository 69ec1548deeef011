package session

import (
	"context"

	"github.com/authsite/idp/internal/idp/domain"
)

type identityKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the request identity, or the guest identity when
// the middleware did not run.
func IdentityFrom(ctx context.Context) domain.Identity {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	if !ok {
		return domain.Guest()
	}
	return id
}
