package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeySize is the minimum HMAC key length accepted, matching the SHA-256
// block output.
const MinKeySize = 32

// Signer signs access token claims.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HS256Signer signs with a process-wide symmetric key.
type HS256Signer struct {
	key []byte
}

// NewSignerHS256 copies key and returns a signer, rejecting short keys.
func NewSignerHS256(key []byte) (*HS256Signer, error) {
	if len(key) < MinKeySize {
		return nil, ErrWeakKey
	}
	return &HS256Signer{key: append([]byte(nil), key...)}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	if len(s.key) == 0 {
		return "", errors.New("jwtx: signer has no key")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}
