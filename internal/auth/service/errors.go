package service

import "errors"

// Authentication failures. All of them are terminal for the request that
// produced them and are never retried internally.
var (
	ErrInvalidCredentials   = errors.New("invalid_credentials")
	ErrAccountInactive      = errors.New("account_inactive")
	ErrTenantInactive       = errors.New("tenant_inactive")
	ErrInvalidTwoFactorCode = errors.New("invalid_2fa_code")
	ErrTwoFactorCodeExpired = errors.New("2fa_code_expired")
	ErrInvalidRefreshToken  = errors.New("invalid_refresh_token")
	ErrReuseDetected        = errors.New("refresh_token_reused")
	ErrInvalidAccessToken   = errors.New("invalid_token")
)

// Administrative failures.
var (
	ErrInvalidUser    = errors.New("invalid_user")
	ErrEmailTaken     = errors.New("email_taken")
	ErrWeakPassword   = errors.New("weak_password")
	ErrUserNotFound   = errors.New("user_not_found")
	ErrTenantNotFound = errors.New("tenant_not_found")
	ErrInvalidTenant  = errors.New("invalid_tenant")
)

// ErrContention means a user record kept changing underneath every save
// attempt. It is the only error a client may retry.
var ErrContention = errors.New("contention")

// maxSaveAttempts bounds the reload-and-retry loop around optimistic saves.
const maxSaveAttempts = 5
