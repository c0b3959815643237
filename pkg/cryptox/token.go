package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/pquerna/otp"
)

// Token sizes in bytes of entropy before encoding.
const (
	TokenSize128 = 16 // 22 chars base64url
	TokenSize256 = 32 // 43 chars base64url
)

// GenerateToken returns size random bytes encoded as unpadded base64url.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateToken panics if the random source fails.
func MustGenerateToken(size int) string {
	token, err := GenerateToken(size)
	if err != nil {
		panic(fmt.Sprintf("cryptox: %v", err))
	}
	return token
}

// FingerprintToken returns the SHA-256 of token as base64url. Only
// fingerprints of bearer secrets are ever persisted.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateNumericCode returns a uniformly distributed, zero padded six digit
// code drawn from crypto/rand.
func GenerateNumericCode() (string, error) {
	const space = 1_000_000
	// Rejection sampling keeps the distribution uniform over [0, space).
	const limit = (1 << 32) / space * space

	var b [4]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		n := binary.BigEndian.Uint32(b[:])
		if n < limit {
			return otp.DigitsSix.Format(int32(n % space)), nil // #nosec G115
		}
	}
}
