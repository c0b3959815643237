package http

import (
	"net/http"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/service"
	"github.com/verticelabs/authcore/pkg/authsdk"
	"github.com/verticelabs/authcore/pkg/httpx"
)

type AdminTenantsHandler struct {
	TenantService *service.TenantService
}

// HandleCreate godoc
//
//	@Summary		Create a tenant
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateTenantRequest	true	"New tenant"
//	@Success		201		{object}	authsdk.TenantResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		403		{object}	authsdk.APIError	"insufficient_role"
//	@Security		BearerAuth
//	@Router			/v1/admin/tenants [post].
func (h *AdminTenantsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.TenantService.Create(r.Context(), req.Name, req.TwoFactorRequired)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tenantResponse(t))
}

// HandleList godoc
//
//	@Summary		List tenants
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	authsdk.TenantListResponse
//	@Failure		403	{object}	authsdk.APIError	"insufficient_role"
//	@Security		BearerAuth
//	@Router			/v1/admin/tenants [get].
func (h *AdminTenantsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.TenantService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := authsdk.TenantListResponse{Tenants: make([]authsdk.TenantResponse, 0, len(tenants))}
	for _, t := range tenants {
		out.Tenants = append(out.Tenants, tenantResponse(t))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleUpdate godoc
//
//	@Summary		Update a tenant
//	@Description	Changes only the fields present in the body. Deactivating a tenant blocks logins and refreshes of its users.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Tenant ID"
//	@Param			request	body		authsdk.UpdateTenantRequest	true	"Changes"
//	@Success		200		{object}	authsdk.TenantResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		403		{object}	authsdk.APIError	"insufficient_role"
//	@Failure		404		{object}	authsdk.APIError	"not_found"
//	@Security		BearerAuth
//	@Router			/v1/admin/tenants/{id} [patch].
func (h *AdminTenantsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.UpdateTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.TenantService.Update(r.Context(), r.PathValue("id"), service.TenantUpdate{
		Name:              req.Name,
		Active:            req.Active,
		TwoFactorRequired: req.TwoFactorRequired,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tenantResponse(t))
}

func tenantResponse(t domain.Tenant) authsdk.TenantResponse {
	return authsdk.TenantResponse{
		ID:                t.ID,
		Name:              t.Name,
		Active:            t.Active,
		TwoFactorRequired: t.Config.TwoFactorRequired,
		CreatedAt:         t.CreatedAt,
	}
}
