package service

import (
	"context"
	"errors"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
	"github.com/verticelabs/authcore/pkg/cryptox"
)

// CredentialVerifier checks an email and password pair.
type CredentialVerifier struct {
	Store store.Store
}

// Verify returns the user owning email when password matches its hash.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials, and
// both cost one hash verification.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (domain.User, error) {
	user, err := v.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.User{}, err
		}
		_ = cryptox.VerifyPassword(password, cryptox.DummyHash())
		return domain.User{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}
