package middleware

import (
	"context"

	"creator-marketplace-service/internal/domain"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity is what the auth gate attaches on successful resolution: the
// user and the session the presented token belongs to.
type Identity struct {
	User    *domain.User
	Session *domain.Session
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}
