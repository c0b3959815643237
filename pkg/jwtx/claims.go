package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL is the access token lifetime used when none is
// configured.
const DefaultAccessTokenTTL = 15 * time.Minute

// Claims are the access token claims. TenantID is empty for platform
// administrators that are not bound to a tenant.
type Claims struct {
	jwt.RegisteredClaims

	TenantID string   `json:"tenantId,omitempty"`
	Roles    []string `json:"roles"`
}

// NewAccessClaims builds claims for subject valid from now until now+ttl
// with a fresh random jti.
func NewAccessClaims(subject, tenantID string, roles []string, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		TenantID: tenantID,
		Roles:    slices.Clone(roles),
	}
}

// HasRole reports whether the token carries role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// ValidateIssuer checks the iss claim. An empty expected issuer accepts any.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateShape rejects tokens missing the claims every consumer relies on.
func (c *Claims) ValidateShape() error {
	if c.Subject == "" || c.ID == "" || len(c.Roles) == 0 {
		return ErrInvalidClaim
	}
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	return nil
}
