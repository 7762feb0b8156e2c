package auth

import (
	"context"

	"github.com/google/uuid"
)

type claimsKey struct{}

// WithClaims stores verified claims on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// ClaimsAuthorizer answers privilege questions from the request's verified claims.
type ClaimsAuthorizer struct{}

// IsPrivileged reports whether actorID is the authenticated caller and holds a staff or admin role.
func (ClaimsAuthorizer) IsPrivileged(ctx context.Context, actorID uuid.UUID) bool {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return false
	}
	return claims.UserID == actorID && claims.Role.IsPrivileged()
}
