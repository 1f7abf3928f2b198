package middleware

import (
	"context"

	"cinema-reviews/internal/usecase"
)

type contextKey string

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p usecase.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext is Anonymous when no auth middleware ran.
func PrincipalFromContext(ctx context.Context) usecase.Principal {
	if p, ok := ctx.Value(principalKey).(usecase.Principal); ok && p != nil {
		return p
	}
	return usecase.Anonymous{}
}

func IdentityFromContext(ctx context.Context) (usecase.Identity, bool) {
	identity, ok := PrincipalFromContext(ctx).(usecase.Identity)
	return identity, ok
}
