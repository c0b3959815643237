package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
	"github.com/verticelabs/authcore/pkg/cryptox"
	"github.com/verticelabs/authcore/pkg/slogx"
)

// DefaultRefreshTTL is the lifetime of a refresh token.
const DefaultRefreshTTL = 30 * 24 * time.Hour

// SessionManager owns each user's list of refresh tokens. A token is
// active until it is used once or expires. Presenting a used token again
// revokes every session of its owner.
type SessionManager struct {
	Store store.Store
	TTL   time.Duration
	Now   Clock
}

// Issue appends a new refresh token to user and returns the opaque value.
// The caller persists the user.
func (m *SessionManager) Issue(user *domain.User) (string, error) {
	now := m.Now.now()
	token, entry, err := m.mint(now)
	if err != nil {
		return "", err
	}
	user.RefreshTokens = append(user.RefreshTokens, entry)
	return token, nil
}

func (m *SessionManager) mint(now time.Time) (string, domain.RefreshToken, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.RefreshToken{}, err
	}

	ttl := m.TTL
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	return token, domain.RefreshToken{
		TokenHash: cryptox.FingerprintToken(token),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Rotate consumes presented and returns its owner with a replacement token.
//
// guard, when set, runs against the owner before anything is written and
// aborts the rotation with its error.
//
// Saves are compare-and-swap on the user version. When two rotations of the
// same token race, the loser reloads, finds the token used, and is handled
// as reuse.
func (m *SessionManager) Rotate(
	ctx context.Context,
	presented string,
	guard func(*domain.User) error,
) (*domain.User, string, error) {
	l := slogx.FromContext(ctx)
	hash := cryptox.FingerprintToken(presented)

	for range maxSaveAttempts {
		user, err := m.Store.Users().GetUserByRefreshToken(ctx, hash)
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidRefreshToken
		}
		if err != nil {
			return nil, "", err
		}

		now := m.Now.now()
		pos := indexOfToken(user.RefreshTokens, hash)
		if pos < 0 || user.RefreshTokens[pos].Expired(now) {
			return nil, "", ErrInvalidRefreshToken
		}

		if user.RefreshTokens[pos].Used {
			user.RefreshTokens = nil
			err := m.Store.Users().SaveUser(ctx, &user)
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			if err != nil {
				return nil, "", fmt.Errorf("revoke sessions after reuse: %w", err)
			}
			l.Warn("refresh token reuse detected, all sessions revoked", slog.String("user_id", user.ID))
			return &user, "", ErrReuseDetected
		}

		if guard != nil {
			if err := guard(&user); err != nil {
				return nil, "", err
			}
		}

		token, entry, err := m.mint(now)
		if err != nil {
			return nil, "", err
		}
		user.RefreshTokens[pos].Used = true
		user.RefreshTokens = append(pruneExpired(user.RefreshTokens, now), entry)

		err = m.Store.Users().SaveUser(ctx, &user)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("save rotation: %w", err)
		}
		return &user, token, nil
	}
	return nil, "", ErrContention
}

// RevokeOne removes presented from its owner's list. Unknown tokens are
// ignored.
func (m *SessionManager) RevokeOne(ctx context.Context, presented string) error {
	hash := cryptox.FingerprintToken(presented)

	for range maxSaveAttempts {
		user, err := m.Store.Users().GetUserByRefreshToken(ctx, hash)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		pos := indexOfToken(user.RefreshTokens, hash)
		if pos < 0 {
			return nil
		}
		user.RefreshTokens = append(user.RefreshTokens[:pos], user.RefreshTokens[pos+1:]...)

		err = m.Store.Users().SaveUser(ctx, &user)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		return err
	}
	return ErrContention
}

func indexOfToken(tokens []domain.RefreshToken, hash string) int {
	for i, t := range tokens {
		if t.TokenHash == hash {
			return i
		}
	}
	return -1
}

// pruneExpired drops expired entries in place, keeping order.
func pruneExpired(tokens []domain.RefreshToken, now time.Time) []domain.RefreshToken {
	kept := tokens[:0]
	for _, t := range tokens {
		if !t.Expired(now) {
			kept = append(kept, t)
		}
	}
	return kept
}
