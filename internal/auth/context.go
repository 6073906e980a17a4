package auth

import "context"

type contextKey string

const identityKey contextKey = "identity"

// ContextWithIdentity stores the verified caller identity in the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the caller identity set by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
