package http

import (
	"net/http"

	"github.com/verticelabs/authcore/internal/auth/service"
	"github.com/verticelabs/authcore/pkg/authsdk"
	"github.com/verticelabs/authcore/pkg/httpx"
)

type MeHandler struct {
	UserService *service.UserService
}

// HandleMe godoc
//
//	@Summary		Resolved principal
//	@Description	Returns the user id, acting tenant and roles the server resolved for the bearer token.
//	@Tags			Me
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	false	"Acting tenant (super admins only)"
//	@Success		200			{object}	authsdk.MeResponse
//	@Failure		401			{object}	authsdk.APIError	"invalid_token"
//	@Failure		403			{object}	authsdk.APIError	"tenant_required"
//	@Security		BearerAuth
//	@Router			/v1/me [get].
func (h *MeHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := httpx.PrincipalFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{
		UserID:   p.UserID,
		TenantID: p.TenantID,
		Roles:    p.Roles,
	})
}

// HandleSetTwoFactor godoc
//
//	@Summary		Set own 2FA preference
//	@Tags			Me
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TwoFactorPreferenceRequest	true	"Preference"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		401		{object}	authsdk.APIError	"invalid_token"
//	@Security		BearerAuth
//	@Router			/v1/me/2fa [put].
func (h *MeHandler) HandleSetTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req authsdk.TwoFactorPreferenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, _ := httpx.PrincipalFromContext(r.Context())
	u, err := h.UserService.SetTwoFactor(r.Context(), p.UserID, req.Enabled)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(u))
}
