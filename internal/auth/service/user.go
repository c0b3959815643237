package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
	"github.com/verticelabs/authcore/pkg/cryptox"
	"github.com/verticelabs/authcore/pkg/idx"
	"github.com/verticelabs/authcore/pkg/slogx"
)

// MinPasswordLength is enforced on registration.
const MinPasswordLength = 8

type RegisterUserInput struct {
	TenantID         *string
	Email            string
	Password         string
	Roles            []string
	TwoFactorEnabled bool
}

type UserService struct {
	Store store.Store
	Now   Clock
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// Register creates an active user with no sessions.
func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (domain.User, error) {
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:               idx.New().String(),
		TenantID:         in.TenantID,
		Email:            strings.TrimSpace(in.Email),
		PasswordHash:     hash,
		Roles:            in.Roles,
		Active:           true,
		TwoFactorEnabled: in.TwoFactorEnabled,
	}
	if err := user.Validate(); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return domain.User{}, ErrEmailTaken
		case errors.Is(err, store.ErrNotFound):
			return domain.User{}, ErrTenantNotFound
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("tenant_id", user.Tenant()),
	)
	return s.Store.Users().GetUserByID(ctx, user.ID)
}

// Deactivate disables the account and ends all of its sessions.
func (s *UserService) Deactivate(ctx context.Context, userID string) (domain.User, error) {
	return s.update(ctx, userID, func(u *domain.User) {
		now := s.Now.now()
		u.Active = false
		u.DeactivatedAt = &now
		u.RefreshTokens = nil
		u.ClearTwoFactorChallenge()
	})
}

// SetTwoFactor records the user's own 2FA preference.
func (s *UserService) SetTwoFactor(ctx context.Context, userID string, enabled bool) (domain.User, error) {
	return s.update(ctx, userID, func(u *domain.User) {
		u.TwoFactorEnabled = enabled
	})
}

func (s *UserService) update(ctx context.Context, userID string, mutate func(*domain.User)) (domain.User, error) {
	for range maxSaveAttempts {
		u, err := s.GetUserByID(ctx, userID)
		if err != nil {
			return domain.User{}, err
		}

		mutate(&u)
		err = s.Store.Users().SaveUser(ctx, &u)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return domain.User{}, err
		}
		return u, nil
	}
	return domain.User{}, ErrContention
}
