package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/pkg/authsdk"
)

func TestLoginRefreshLogout(t *testing.T) {
	s := newTestServer(t)
	acme := s.tenant(t, "Acme")
	s.user(t, &acme, "alice@acme.test", domain.RoleTenantUser)

	pair := s.login(t, "alice@acme.test")
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, 900, pair.ExpiresIn)

	w := s.do(t, request{method: http.MethodPost, path: "/v1/auth/refresh",
		body: authsdk.RefreshRequest{RefreshToken: pair.RefreshToken}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var rotated authsdk.TokenResponse
	decode(t, w, &rotated)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	w = s.do(t, request{method: http.MethodPost, path: "/v1/auth/logout",
		body: authsdk.LogoutRequest{RefreshToken: rotated.RefreshToken}})
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.String())

	w = s.do(t, request{method: http.MethodPost, path: "/v1/auth/refresh",
		body: authsdk.RefreshRequest{RefreshToken: rotated.RefreshToken}})
	requireError(t, w, http.StatusUnauthorized, authsdk.ErrorCodeInvalidRefreshToken)
}

func TestRefreshReuseRevokesSessions(t *testing.T) {
	s := newTestServer(t)
	acme := s.tenant(t, "Acme")
	s.user(t, &acme, "bob@acme.test", domain.RoleTenantUser)

	first := s.login(t, "bob@acme.test")
	other := s.login(t, "bob@acme.test")

	w := s.do(t, request{method: http.MethodPost, path: "/v1/auth/refresh",
		body: authsdk.RefreshRequest{RefreshToken: first.RefreshToken}})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, request{method: http.MethodPost, path: "/v1/auth/refresh",
		body: authsdk.RefreshRequest{RefreshToken: first.RefreshToken}})
	requireError(t, w, http.StatusUnauthorized, authsdk.ErrorCodeRefreshTokenReused)

	// Every other session of the user is gone too.
	w = s.do(t, request{method: http.MethodPost, path: "/v1/auth/refresh",
		body: authsdk.RefreshRequest{RefreshToken: other.RefreshToken}})
	requireError(t, w, http.StatusUnauthorized, authsdk.ErrorCodeInvalidRefreshToken)
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t)
	acme := s.tenant(t, "Acme")
	s.user(t, &acme, "carol@acme.test", domain.RoleTenantUser)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"wrong password", authsdk.LoginRequest{Email: "carol@acme.test", Password: "nope"},
			http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials},
		{"unknown email", authsdk.LoginRequest{Email: "nobody@acme.test", Password: testPassword},
			http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials},
		{"missing password", authsdk.LoginRequest{Email: "carol@acme.test"},
			http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest},
		{"malformed body", "{not json",
			http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, request{method: http.MethodPost, path: "/v1/auth/login", body: tt.body})
			requireError(t, w, tt.status, tt.code)
		})
	}
}

func TestLoginInactiveTenant(t *testing.T) {
	s := newTestServer(t)
	acme := s.tenant(t, "Acme")
	s.user(t, &acme, "dave@acme.test", domain.RoleTenantUser)

	s.user(t, nil, "root@platform.test", domain.RoleSuperAdmin)
	root := s.login(t, "root@platform.test")

	inactive := false
	w := s.do(t, request{method: http.MethodPatch, path: "/v1/admin/tenants/" + acme.ID,
		token: root.AccessToken, body: authsdk.UpdateTenantRequest{Active: &inactive}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, request{method: http.MethodPost, path: "/v1/auth/login",
		body: authsdk.LoginRequest{Email: "dave@acme.test", Password: testPassword}})
	requireError(t, w, http.StatusForbidden, authsdk.ErrorCodeTenantInactive)
}

func TestTwoFactorFlow(t *testing.T) {
	s := newTestServer(t)
	acme := s.tenant(t, "Acme")
	u := s.user(t, &acme, "erin@acme.test", domain.RoleTenantUser)
	_, err := s.users.SetTwoFactor(t.Context(), u.ID, true)
	require.NoError(t, err)

	w := s.do(t, request{method: http.MethodPost, path: "/v1/auth/login",
		body: authsdk.LoginRequest{Email: "erin@acme.test", Password: testPassword}})
	require.Equal(t, http.StatusOK, w.Code)

	var res authsdk.LoginResponse
	decode(t, w, &res)
	require.True(t, res.Requires2FA)
	require.Equal(t, challengeMessage, res.Message)
	require.Empty(t, res.AccessToken)
	require.NotContains(t, w.Body.String(), "accessToken")

	code := s.sender.last("erin@acme.test")
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	w = s.do(t, request{method: http.MethodPost, path: "/v1/auth/verify-2fa",
		body: authsdk.VerifyTwoFactorRequest{Email: "erin@acme.test", Code: wrong}})
	requireError(t, w, http.StatusUnauthorized, authsdk.ErrorCodeInvalidTwoFactor)

	w = s.do(t, request{method: http.MethodPost, path: "/v1/auth/verify-2fa",
		body: authsdk.VerifyTwoFactorRequest{Email: "erin@acme.test", Code: code}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var pair authsdk.TokenResponse
	decode(t, w, &pair)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// The code is single use.
	w = s.do(t, request{method: http.MethodPost, path: "/v1/auth/verify-2fa",
		body: authsdk.VerifyTwoFactorRequest{Email: "erin@acme.test", Code: code}})
	requireError(t, w, http.StatusUnauthorized, authsdk.ErrorCodeInvalidTwoFactor)
}

func TestLogoutAlwaysNoContent(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []any{
		authsdk.LogoutRequest{RefreshToken: "never-issued"},
		authsdk.LogoutRequest{},
		"{broken",
	} {
		w := s.do(t, request{method: http.MethodPost, path: "/v1/auth/logout", body: body})
		require.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestLoginRateLimitedPerEmail(t *testing.T) {
	s := newTestServer(t)

	var last int
	for range 6 {
		w := s.do(t, request{method: http.MethodPost, path: "/v1/auth/login",
			body: authsdk.LoginRequest{Email: "mallory@acme.test", Password: "guess"}})
		last = w.Code
	}
	require.Equal(t, http.StatusTooManyRequests, last)

	// A different email has its own budget.
	w := s.do(t, request{method: http.MethodPost, path: "/v1/auth/login",
		body: authsdk.LoginRequest{Email: "trent@acme.test", Password: "guess"}})
	requireError(t, w, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials)
}
