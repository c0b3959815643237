package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/service"
	"github.com/verticelabs/authcore/pkg/authsdk"
	"github.com/verticelabs/authcore/pkg/httpx"
)

const challengeMessage = "A verification code has been sent to your email."

// AuthHandler serves the public authentication endpoints under /v1/auth.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleLogin godoc
//
//	@Summary		Sign in with email and password
//	@Description	Returns a token pair, or requires2FA when a verification code was emailed instead.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		401		{object}	authsdk.APIError	"invalid_credentials"
//	@Failure		403		{object}	authsdk.APIError	"account_inactive, tenant_inactive"
//	@Failure		429		{object}	authsdk.APIError	"rate_limited"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WithDescription("email and password are required").WriteError(w)
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	if res.TwoFactorRequired {
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
			Requires2FA: true,
			Message:     challengeMessage,
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{TokenResponse: tokenResponse(res.Tokens)})
}

// HandleVerifyTwoFactor godoc
//
//	@Summary		Complete a 2FA challenge
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyTwoFactorRequest	true	"Email and code"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		401		{object}	authsdk.APIError	"invalid_2fa_code, 2fa_code_expired"
//	@Failure		403		{object}	authsdk.APIError	"account_inactive, tenant_inactive"
//	@Failure		429		{object}	authsdk.APIError	"rate_limited"
//	@Router			/v1/auth/verify-2fa [post].
func (h *AuthHandler) HandleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyTwoFactorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Code == "" {
		authsdk.ErrInvalidRequest.WithDescription("email and code are required").WriteError(w)
		return
	}

	pair, err := h.AuthService.VerifyTwoFactor(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}

// HandleRefresh godoc
//
//	@Summary		Rotate a refresh token
//	@Description	Consumes the presented refresh token and returns a new pair. Replaying a consumed token revokes every session of the user.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		401		{object}	authsdk.APIError	"invalid_refresh_token, refresh_token_reused"
//	@Failure		403		{object}	authsdk.APIError	"account_inactive, tenant_inactive"
//	@Failure		409		{object}	authsdk.APIError	"conflict"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		authsdk.ErrInvalidRequest.WithDescription("refreshToken is required").WriteError(w)
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}

// HandleLogout godoc
//
//	@Summary		Sign out one session
//	@Description	Revokes the presented refresh token. Always answers 204 so the response reveals nothing about the token.
//	@Tags			Auth
//	@Accept			json
//	@Param			request	body	authsdk.LogoutRequest	true	"Refresh token"
//	@Success		204
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LogoutRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err == nil && req.RefreshToken != "" {
		h.AuthService.Logout(r.Context(), req.RefreshToken)
	}
	w.WriteHeader(http.StatusNoContent)
}

func tokenResponse(p *domain.TokenPair) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    int(p.ExpiresIn.Seconds()),
	}
}
