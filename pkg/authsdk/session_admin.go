package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Admin operations. User management needs TENANT_ADMIN or SUPER_ADMIN,
// tenants and settings need SUPER_ADMIN.

func (s *Session) RegisterUser(ctx context.Context, req RegisterUserRequest) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/admin/users", req)
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeactivateUser disables a user and revokes all of their sessions.
func (s *Session) DeactivateUser(ctx context.Context, userID string) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/admin/users/"+url.PathEscape(userID)+"/deactivate", nil)
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) CreateTenant(ctx context.Context, req CreateTenantRequest) (*TenantResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/admin/tenants", req)
	if err != nil {
		return nil, err
	}

	var out TenantResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListTenants(ctx context.Context) ([]TenantResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/admin/tenants", nil)
	if err != nil {
		return nil, err
	}

	var out TenantListResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Tenants, nil
}

func (s *Session) UpdateTenant(ctx context.Context, tenantID string, req UpdateTenantRequest) (*TenantResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPatch, "/v1/admin/tenants/"+url.PathEscape(tenantID), req)
	if err != nil {
		return nil, err
	}

	var out TenantResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) GetForceTwoFactor(ctx context.Context) (bool, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/admin/settings/force-2fa", nil)
	if err != nil {
		return false, err
	}

	var out ForceTwoFactorSetting
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.Enabled, nil
}

// SetForceTwoFactor turns the platform wide 2FA requirement on or off.
func (s *Session) SetForceTwoFactor(ctx context.Context, enabled bool) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/v1/admin/settings/force-2fa", ForceTwoFactorSetting{Enabled: enabled})
	if err != nil {
		return err
	}

	var out ForceTwoFactorSetting
	return decodeJSON(resp, &out, http.StatusOK)
}
