package http

import (
	"net/http"
	"strings"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/service"
	"github.com/verticelabs/authcore/pkg/authsdk"
	"github.com/verticelabs/authcore/pkg/httpx"
	"github.com/verticelabs/authcore/pkg/slogx"
)

const BootstrapTokenHeader = "X-Bootstrap-Token"

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the authentication system
//	@Description	Creates the first super admin. Only available when a bootstrap token is configured, and only while no user exists.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string						true	"Bootstrap token"
//	@Param			request				body		authsdk.BootstrapRequest	true	"First super admin"
//	@Success		201					{object}	authsdk.BootstrapResponse
//	@Failure		400					{object}	authsdk.APIError	"invalid_request"
//	@Failure		401					{object}	authsdk.APIError	"missing or invalid bootstrap token"
//	@Failure		404					{object}	authsdk.APIError	"bootstrap not enabled"
//	@Failure		409					{object}	authsdk.APIError	"already bootstrapped"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())
	l.Info("Starting to bootstrap")

	// 1. Check if enabled
	if !h.BootstrapService.Enabled() {
		authsdk.ErrNotFound.WithDescription("bootstrap endpoint is not enabled").WriteError(w)
		return
	}

	// 2. Require bootstrap token header
	token := r.Header.Get(BootstrapTokenHeader)
	if token == "" {
		errBootstrapUnauthorized.WithDescription("bootstrap token is required in " + BootstrapTokenHeader).WriteError(w)
		return
	}

	// 3. Parse request body and validate
	var req authsdk.BootstrapRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.AdminEmail) == "" || req.AdminPassword == "" {
		authsdk.ErrInvalidRequest.WithDescription("adminEmail and adminPassword are required").WriteError(w)
		return
	}

	// 4. Create the first super admin
	admin, err := h.BootstrapService.Bootstrap(r.Context(), token, domain.BootstrapData{
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.BootstrapResponse{
		UserID: admin.ID,
		Email:  admin.Email,
	})
}
