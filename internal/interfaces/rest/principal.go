package rest

import (
	"context"

	"github.com/DanielPopoola/stripe-bridge/internal/application/services"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *services.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by the authentication middleware.
func PrincipalFrom(ctx context.Context) (*services.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*services.Principal)
	return p, ok && p != nil
}
