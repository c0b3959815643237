package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/pkg/jwtx"
)

// AccessTokenIssuer mints and checks short lived access tokens.
type AccessTokenIssuer struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string
	TTL      time.Duration
	Now      Clock
}

// Issue signs an access token for user and reports its lifetime.
func (i *AccessTokenIssuer) Issue(user *domain.User) (string, time.Duration, error) {
	ttl := i.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	claims := jwtx.NewAccessClaims(user.ID, user.Tenant(), user.Roles, i.Issuer, ttl, i.Now.now())
	token, err := i.Signer.Sign(claims)
	if err != nil {
		return "", 0, fmt.Errorf("sign access token: %w", err)
	}
	return token, ttl, nil
}

// Verify checks token and returns its claims. Every failure wraps
// ErrInvalidAccessToken; expiry additionally matches jwtx.ErrExpired.
func (i *AccessTokenIssuer) Verify(token string) (*jwtx.Claims, error) {
	claims, err := i.Verifier.Verify(token)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAccessToken, jwtx.ErrExpired)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}
	return claims, nil
}
