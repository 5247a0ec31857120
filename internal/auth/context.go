package auth

import (
	"context"

	"github.com/cliptube/backend/internal/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity attaches the authenticated user to the request context.
// Identity always travels on the context, never as process-global state.
func WithIdentity(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, identityKey, user)
}

// IdentityFromContext returns the authenticated user, if any.
func IdentityFromContext(ctx context.Context) (models.User, bool) {
	if ctx == nil {
		return models.User{}, false
	}
	user, ok := ctx.Value(identityKey).(models.User)
	return user, ok && user.ID != ""
}
