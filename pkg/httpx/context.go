package httpx

import (
	"context"
	"slices"

	"github.com/verticelabs/authcore/pkg/jwtx"
)

type ctxKey string

const (
	ctxKeyClaims    ctxKey = "claims"
	ctxKeyPrincipal ctxKey = "principal"
)

// Principal is the caller of an authenticated request: who they are, which
// tenant they act in and what they may do.
type Principal struct {
	UserID   string
	TenantID string
	Roles    []string
}

func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

func WithClaims(ctx context.Context, c *jwtx.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

func ClaimsFromContext(ctx context.Context) (*jwtx.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(*jwtx.Claims)
	return c, ok && c != nil
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the principal set by TenantResolver.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok
}
