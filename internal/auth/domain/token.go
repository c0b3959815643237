package domain

import "time"

// TokenPair is what a successful login, 2FA verification or refresh hands
// back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string // always "Bearer"
	ExpiresIn    time.Duration
}

// RefreshToken is one entry of a user's session list. Only the fingerprint
// of the opaque token is kept.
type RefreshToken struct {
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

func (t RefreshToken) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }
