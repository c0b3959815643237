package authsdk

import (
	"context"
	"net/http"
)

// Me returns the principal the server resolved for this session.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/me", nil)
	if err != nil {
		return nil, err
	}

	var out MeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetTwoFactor turns the caller's own 2FA preference on or off.
func (s *Session) SetTwoFactor(ctx context.Context, enabled bool) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/v1/me/2fa", TwoFactorPreferenceRequest{Enabled: enabled})
	if err != nil {
		return nil, err
	}

	var out UserResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
