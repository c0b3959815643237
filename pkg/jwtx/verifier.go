package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrWeakKey      = errors.New("jwtx: signing key shorter than 32 bytes")
)

// ClockSkew is how far in the future a token's iat may lie before it is
// rejected. Replicas sign with their own clocks.
const ClockSkew = 30 * time.Second

// Verifier checks a token and returns its claims.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// HS256Verifier verifies tokens produced by HS256Signer with the same key.
type HS256Verifier struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewVerifierHS256 returns a verifier. An empty issuer disables the iss check.
func NewVerifierHS256(key []byte, issuer string) (*HS256Verifier, error) {
	if len(key) < MinKeySize {
		return nil, ErrWeakKey
	}
	return &HS256Verifier{key: append([]byte(nil), key...), issuer: issuer, now: time.Now}, nil
}

// WithClock overrides the time source used for exp and iat checks.
func (v *HS256Verifier) WithClock(now func() time.Time) *HS256Verifier {
	v.now = now
	return v
}

// Verify parses token, checks the signature, exp, iat and issuer, and returns the
// claims. Failures wrap one of the package errors.
func (v *HS256Verifier) Verify(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, fmt.Errorf("%w: %v", ErrInvalidSig, err)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}

	// exp stays exact; only iat tolerates skew.
	if iat := claims.IssuedAt; iat != nil && iat.After(v.now().Add(ClockSkew)) {
		return nil, fmt.Errorf("%w: token used before issued", ErrInvalidClaim)
	}
	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidateShape(); err != nil {
		return nil, err
	}
	return claims, nil
}
