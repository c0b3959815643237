package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/verticelabs/authcore/internal/auth/service"
	"github.com/verticelabs/authcore/pkg/authsdk"
	"github.com/verticelabs/authcore/pkg/slogx"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

var errContention = &authsdk.APIError{
	StatusCode:  http.StatusConflict,
	Code:        authsdk.ErrorCodeConflict,
	Description: "the account was modified concurrently, retry the request",
}

var errBootstrapUnauthorized = &authsdk.APIError{
	StatusCode:  http.StatusUnauthorized,
	Code:        "unauthorized",
	Description: "missing or invalid bootstrap token",
}

// writeServiceError maps a service error onto the wire error table. Errors
// that are not part of the table are logged and reported as server_error
// without leaking their text.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr == authsdk.ErrServerError {
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
	}
	apiErr.WriteError(w)
}

func toAPIError(err error) *authsdk.APIError {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return authsdk.ErrInvalidCredentials
	case errors.Is(err, service.ErrAccountInactive):
		return authsdk.ErrAccountInactive
	case errors.Is(err, service.ErrTenantInactive):
		return authsdk.ErrTenantInactive
	case errors.Is(err, service.ErrInvalidTwoFactorCode):
		return authsdk.ErrInvalidTwoFactorCode
	case errors.Is(err, service.ErrTwoFactorCodeExpired):
		return authsdk.ErrTwoFactorCodeExpired
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return authsdk.ErrInvalidRefreshToken
	case errors.Is(err, service.ErrReuseDetected):
		return authsdk.ErrRefreshTokenReused
	case errors.Is(err, service.ErrInvalidAccessToken):
		return authsdk.ErrInvalidToken

	case errors.Is(err, service.ErrWeakPassword):
		return authsdk.ErrInvalidRequest.WithDescription("password must be at least 8 characters")
	case errors.Is(err, service.ErrInvalidUser):
		return authsdk.ErrInvalidRequest.WithDescription(err.Error())
	case errors.Is(err, service.ErrInvalidTenant):
		return authsdk.ErrInvalidRequest.WithDescription("tenant name is required")
	case errors.Is(err, service.ErrEmailTaken):
		return authsdk.ErrConflict.WithDescription("email already registered")
	case errors.Is(err, service.ErrUserNotFound):
		return authsdk.ErrNotFound.WithDescription("user not found")
	case errors.Is(err, service.ErrTenantNotFound):
		return authsdk.ErrNotFound.WithDescription("tenant not found")
	case errors.Is(err, service.ErrContention):
		return errContention

	case errors.Is(err, service.ErrBootstrapUnauthorized):
		return errBootstrapUnauthorized
	case errors.Is(err, service.ErrBootstrapAlready):
		return authsdk.ErrConflict.WithDescription("system already bootstrapped")
	}
	return authsdk.ErrServerError
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("request body must be a valid JSON object").WriteError(w)
		return false
	}
	return true
}
