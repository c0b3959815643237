package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/verticelabs/authcore/pkg/httpx"
	"github.com/verticelabs/authcore/pkg/jwtx"
)

var testKey = []byte("httpx-test-signing-key-at-least-32")

func mintToken(t *testing.T, tenantID string, roles ...string) string {
	t.Helper()
	s, err := jwtx.NewSignerHS256(testKey)
	require.NoError(t, err)
	tok, err := s.Sign(jwtx.NewAccessClaims("user-1", tenantID, roles, "authcore-test", time.Minute, time.Now()))
	require.NoError(t, err)
	return tok
}

// protected builds authn -> tenant resolution -> handler that echoes the
// principal it saw.
func protected(t *testing.T, got *httpx.Principal, extra ...httpx.Middleware) http.Handler {
	t.Helper()
	v, err := jwtx.NewVerifierHS256(testKey, "authcore-test")
	require.NoError(t, err)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := httpx.PrincipalFromContext(r.Context())
		require.True(t, ok)
		*got = p
		w.WriteHeader(http.StatusNoContent)
	})
	mws := append([]httpx.Middleware{httpx.AuthnMiddleware(v), httpx.TenantResolver()}, extra...)
	return httpx.Chain(final, mws...)
}

func do(h http.Handler, token string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthn_RejectsMissingAndInvalidTokens(t *testing.T) {
	var p httpx.Principal
	h := protected(t, &p)

	rec := do(h, "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
	require.Contains(t, rec.Body.String(), `"error":"invalid_token"`)

	rec = do(h, "not.a.jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := jwtx.NewSignerHS256([]byte("another-signing-key-of-32-bytes!!"))
	require.NoError(t, err)
	forged, err := other.Sign(jwtx.NewAccessClaims("user-1", "t1", []string{"SUPER_ADMIN"}, "authcore-test", time.Minute, time.Now()))
	require.NoError(t, err)
	rec = do(h, forged, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthn_RejectsExpiredToken(t *testing.T) {
	var p httpx.Principal
	h := protected(t, &p)

	s, err := jwtx.NewSignerHS256(testKey)
	require.NoError(t, err)
	old, err := s.Sign(jwtx.NewAccessClaims("user-1", "t1", []string{"TENANT_USER"}, "authcore-test", time.Minute, time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	rec := do(h, old, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "token expired")
}

func TestTenantResolver(t *testing.T) {
	tests := []struct {
		name       string
		tenant     string
		roles      []string
		header     string
		wantStatus int
		wantTenant string
	}{
		{"tenant user uses token tenant", "t1", []string{"TENANT_USER"}, "", http.StatusNoContent, "t1"},
		{"tenant user cannot switch tenant", "t1", []string{"TENANT_ADMIN"}, "t2", http.StatusNoContent, "t1"},
		{"super admin header wins", "", []string{"SUPER_ADMIN"}, "t2", http.StatusNoContent, "t2"},
		{"super admin defaults to global", "", []string{"SUPER_ADMIN"}, "", http.StatusNoContent, "GLOBAL"},
		{"tenant user without tenant is refused", "", []string{"TENANT_USER"}, "", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p httpx.Principal
			h := protected(t, &p)

			header := map[string]string{}
			if tt.header != "" {
				header[httpx.TenantHeader] = tt.header
			}
			rec := do(h, mintToken(t, tt.tenant, tt.roles...), header)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusNoContent {
				require.Equal(t, "user-1", p.UserID)
				require.Equal(t, tt.wantTenant, p.TenantID)
				require.Equal(t, tt.roles, p.Roles)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	var p httpx.Principal
	h := protected(t, &p, httpx.RequireRole("SUPER_ADMIN", "TENANT_ADMIN"))

	rec := do(h, mintToken(t, "t1", "TENANT_ADMIN"), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, mintToken(t, "t1", "TENANT_USER"), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), `"error":"insufficient_role"`)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "c"}, order)
}
