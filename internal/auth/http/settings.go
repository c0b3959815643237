package http

import (
	"log/slog"
	"net/http"

	"github.com/verticelabs/authcore/internal/auth/settings"
	"github.com/verticelabs/authcore/pkg/authsdk"
	"github.com/verticelabs/authcore/pkg/httpx"
	"github.com/verticelabs/authcore/pkg/slogx"
)

// SettingsHandler exposes the platform wide force-2FA switch.
type SettingsHandler struct {
	Flags *settings.Flags
	Store settings.Store
}

// HandleGetForceTwoFactor godoc
//
//	@Summary		Read the force-2FA setting
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	authsdk.ForceTwoFactorSetting
//	@Failure		403	{object}	authsdk.APIError	"insufficient_role"
//	@Security		BearerAuth
//	@Router			/v1/admin/settings/force-2fa [get].
func (h *SettingsHandler) HandleGetForceTwoFactor(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.ForceTwoFactorSetting{Enabled: h.Flags.ForceTwoFactor()})
}

// HandleSetForceTwoFactor godoc
//
//	@Summary		Change the force-2FA setting
//	@Description	When enabled every login requires an emailed code. Other replicas pick the change up on their next poll.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ForceTwoFactorSetting	true	"New value"
//	@Success		200		{object}	authsdk.ForceTwoFactorSetting
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		403		{object}	authsdk.APIError	"insufficient_role"
//	@Security		BearerAuth
//	@Router			/v1/admin/settings/force-2fa [put].
func (h *SettingsHandler) HandleSetForceTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ForceTwoFactorSetting
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Store.SetForceTwoFactor(r.Context(), req.Enabled); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Warn("force 2fa changed", slog.Bool("enabled", req.Enabled))
	httpx.WriteJSON(w, http.StatusOK, authsdk.ForceTwoFactorSetting{Enabled: h.Flags.ForceTwoFactor()})
}
