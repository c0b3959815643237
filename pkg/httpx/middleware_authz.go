package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/verticelabs/authcore/pkg/slogx"
)

const (
	// TenantHeader lets a super admin act inside a specific tenant.
	TenantHeader = "X-Tenant-ID"

	RoleSuperAdmin = "SUPER_ADMIN"
	// GlobalTenant is the acting tenant of a super admin who did not pick one.
	GlobalTenant = "GLOBAL"
)

// TenantResolver turns the verified claims into a Principal. It must run
// after AuthnMiddleware.
//
// The acting tenant is the X-Tenant-ID header for super admins, else the
// token's tenant, else GLOBAL for super admins. Any other caller without a
// tenant is refused.
func TenantResolver() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			claims, ok := ClaimsFromContext(ctx)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			p := Principal{UserID: claims.Subject, TenantID: claims.TenantID, Roles: claims.Roles}
			if p.HasRole(RoleSuperAdmin) {
				if h := strings.TrimSpace(r.Header.Get(TenantHeader)); h != "" {
					p.TenantID = h
				}
				if p.TenantID == "" {
					p.TenantID = GlobalTenant
				}
			} else if p.TenantID == "" {
				slogx.FromContext(ctx).Warn("token without tenant for non super admin",
					slog.String("user_id", p.UserID))
				WriteError(w, http.StatusForbidden, "tenant_required", "no tenant bound to this account")
				return
			}

			ctx = WithPrincipal(ctx, p)
			ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With(
				slog.String("user_id", p.UserID),
				slog.String("tenant_id", p.TenantID),
			))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through when the principal holds at least
// one of roles.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if ok {
				for _, role := range roles {
					if p.HasRole(role) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			WriteError(w, http.StatusForbidden, "insufficient_role",
				"requires one of: "+strings.Join(roles, ", "))
		})
	}
}
