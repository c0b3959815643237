package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mux *http.ServeMux) *SDKClient {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewSDKClient(srv.URL + "/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAuthenticateWithPassword(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Email {
		case "ana@acme.test":
			writeJSON(w, http.StatusOK, map[string]any{
				"accessToken": "at-1", "refreshToken": "rt-1", "tokenType": "Bearer", "expiresIn": 900,
			})
		case "bob@acme.test":
			writeJSON(w, http.StatusOK, map[string]any{"requires2FA": true, "message": "code sent"})
		default:
			ErrInvalidCredentials.WriteError(w)
		}
	})
	client := newTestServer(t, mux)
	ctx := context.Background()

	s, err := client.AuthenticateWithPassword(ctx, "ana@acme.test", "pw")
	require.NoError(t, err)
	require.Equal(t, "at-1", s.AccessToken())
	require.Equal(t, "rt-1", s.RefreshToken())

	_, err = client.AuthenticateWithPassword(ctx, "bob@acme.test", "pw")
	require.ErrorIs(t, err, ErrTwoFactorRequired)

	_, err = client.AuthenticateWithPassword(ctx, "eve@acme.test", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestSession_RefreshesExpiredAccessToken(t *testing.T) {
	t.Parallel()

	var refreshes int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.RefreshToken != "rt-old" {
			ErrRefreshTokenReused.WriteError(w)
			return
		}
		refreshes++
		writeJSON(w, http.StatusOK, TokenResponse{AccessToken: "at-new", RefreshToken: "rt-new", TokenType: "Bearer", ExpiresIn: 900})
	})
	mux.HandleFunc("GET /v1/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer at-new", r.Header.Get("Authorization"))
		require.Equal(t, "tenant-7", r.Header.Get("X-Tenant-ID"))
		writeJSON(w, http.StatusOK, MeResponse{UserID: "u1", TenantID: "tenant-7", Roles: []string{"SUPER_ADMIN"}})
	})
	client := newTestServer(t, mux)

	// expiresIn 0 puts the token inside the refresh skew.
	s := client.NewSessionFromTokens("at-old", "rt-old", 0)
	s.ActAs("tenant-7")

	me, err := s.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tenant-7", me.TenantID)
	require.Equal(t, 1, refreshes)
	require.Equal(t, "rt-new", s.RefreshToken())

	// A second call uses the fresh token without refreshing again.
	_, err = s.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, refreshes)
}

func TestSession_RefreshReuseSurfacesAPIError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		ErrRefreshTokenReused.WriteError(w)
	})
	client := newTestServer(t, mux)

	s := client.NewSessionFromTokens("at", "rt", 900)
	require.ErrorIs(t, s.Refresh(context.Background()), ErrRefreshTokenReused)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	var revoked []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		var req LogoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		revoked = append(revoked, req.RefreshToken)
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestServer(t, mux)

	s := client.NewSessionFromTokens("at", "rt", 900)
	require.NoError(t, s.Logout(context.Background()))
	require.NoError(t, s.Logout(context.Background()))
	require.Equal(t, []string{"rt"}, revoked)
	require.Empty(t, s.RefreshToken())
}

func TestParseErrorResponse_Fallback(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	})
	client := newTestServer(t, mux)

	_, err := client.GetReadiness(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, ErrorCodeServerError, apiErr.Code)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestAPIError_WriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ErrTenantInactive.WithDescription("tenant acme is disabled").WriteError(rec)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"error":"tenant_inactive","error_description":"tenant acme is disabled"}`, rec.Body.String())
	require.Equal(t, "the tenant is deactivated", ErrTenantInactive.Description)
}
