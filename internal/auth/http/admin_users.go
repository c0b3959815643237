package http

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/service"
	"github.com/verticelabs/authcore/pkg/authsdk"
	"github.com/verticelabs/authcore/pkg/httpx"
	"github.com/verticelabs/authcore/pkg/slogx"
)

// AdminUsersHandler manages accounts. Tenant admins are confined to their
// own tenant; super admins may act on any account.
type AdminUsersHandler struct {
	UserService *service.UserService
}

// HandleRegister godoc
//
//	@Summary		Register a user
//	@Description	Tenant admins register users into their own tenant. Super admins may register into any tenant, or register other super admins.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterUserRequest	true	"New user"
//	@Success		201		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		403		{object}	authsdk.APIError	"insufficient_role"
//	@Failure		404		{object}	authsdk.APIError	"not_found"
//	@Failure		409		{object}	authsdk.APIError	"conflict"
//	@Security		BearerAuth
//	@Router			/v1/admin/users [post].
func (h *AdminUsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, _ := httpx.PrincipalFromContext(r.Context())
	tenantID := req.TenantID

	if !p.HasRole(domain.RoleSuperAdmin) {
		if slices.Contains(req.Roles, domain.RoleSuperAdmin) {
			authsdk.ErrInsufficientRole.WithDescription("only super admins may create super admins").WriteError(w)
			return
		}
		if tenantID != nil && *tenantID != p.TenantID {
			authsdk.ErrInsufficientRole.WithDescription("tenant admins may only register users in their own tenant").WriteError(w)
			return
		}
		own := p.TenantID
		tenantID = &own
	} else if tenantID == nil && p.TenantID != httpx.GlobalTenant && !slices.Contains(req.Roles, domain.RoleSuperAdmin) {
		acting := p.TenantID
		tenantID = &acting
	}

	u, err := h.UserService.Register(r.Context(), service.RegisterUserInput{
		TenantID:         tenantID,
		Email:            req.Email,
		Password:         req.Password,
		Roles:            req.Roles,
		TwoFactorEnabled: req.TwoFactorEnabled,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, userResponse(u))
}

// HandleDeactivate godoc
//
//	@Summary		Deactivate a user
//	@Description	Disables the account and revokes all of its sessions. Access tokens already issued stay valid until they expire.
//	@Tags			Admin
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		403	{object}	authsdk.APIError	"insufficient_role"
//	@Failure		404	{object}	authsdk.APIError	"not_found"
//	@Security		BearerAuth
//	@Router			/v1/admin/users/{id}/deactivate [post].
func (h *AdminUsersHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	p, _ := httpx.PrincipalFromContext(ctx)

	if !p.HasRole(domain.RoleSuperAdmin) {
		target, err := h.UserService.GetUserByID(ctx, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		// Accounts outside the caller's tenant are reported as missing.
		if target.Tenant() != p.TenantID {
			writeServiceError(w, r, service.ErrUserNotFound)
			return
		}
	}

	u, err := h.UserService.Deactivate(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("user deactivated", slog.String("target_user_id", u.ID))
	httpx.WriteJSON(w, http.StatusOK, userResponse(u))
}

func userResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:               u.ID,
		TenantID:         u.TenantID,
		Email:            u.Email,
		Roles:            u.Roles,
		Active:           u.Active,
		TwoFactorEnabled: u.TwoFactorEnabled,
		DeactivatedAt:    u.DeactivatedAt,
		CreatedAt:        u.CreatedAt,
	}
}
