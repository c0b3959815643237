package authsdk

import "time"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is either a token pair or, when Requires2FA is set, a
// notice that a code was sent to the user's email.
type LoginResponse struct {
	TokenResponse

	Requires2FA bool   `json:"requires2FA,omitempty"`
	Message     string `json:"message,omitempty"`
}

type VerifyTwoFactorRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is an access token plus the refresh token that replaces
// the one presented, if any.
type TokenResponse struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType,omitempty"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expiresIn,omitempty"`
}

// MeResponse is the principal the server resolved for the caller.
type MeResponse struct {
	UserID   string   `json:"userId"`
	TenantID string   `json:"tenantId"`
	Roles    []string `json:"roles"`
}

type TwoFactorPreferenceRequest struct {
	Enabled bool `json:"enabled"`
}

type RegisterUserRequest struct {
	// TenantID is required unless Roles is exactly SUPER_ADMIN. A tenant
	// admin may omit it to register into their own tenant.
	TenantID         *string  `json:"tenantId,omitempty"`
	Email            string   `json:"email"`
	Password         string   `json:"password"`
	Roles            []string `json:"roles"`
	TwoFactorEnabled bool     `json:"twoFactorEnabled"`
}

type UserResponse struct {
	ID               string     `json:"id"`
	TenantID         *string    `json:"tenantId,omitempty"`
	Email            string     `json:"email"`
	Roles            []string   `json:"roles"`
	Active           bool       `json:"active"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	DeactivatedAt    *time.Time `json:"deactivatedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type CreateTenantRequest struct {
	Name              string `json:"name"`
	TwoFactorRequired bool   `json:"twoFactorRequired"`
}

// UpdateTenantRequest changes only the fields that are set.
type UpdateTenantRequest struct {
	Name              *string `json:"name,omitempty"`
	Active            *bool   `json:"active,omitempty"`
	TwoFactorRequired *bool   `json:"twoFactorRequired,omitempty"`
}

type TenantResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Active            bool      `json:"active"`
	TwoFactorRequired bool      `json:"twoFactorRequired"`
	CreatedAt         time.Time `json:"createdAt"`
}

type TenantListResponse struct {
	Tenants []TenantResponse `json:"tenants"`
}

type ForceTwoFactorSetting struct {
	Enabled bool `json:"enabled"`
}

type BootstrapRequest struct {
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
}

type BootstrapResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}
