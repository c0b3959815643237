package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
	"github.com/verticelabs/authcore/pkg/slogx"
)

// LoginResult is either a challenge or a token pair, never both.
type LoginResult struct {
	TwoFactorRequired bool
	Tokens            *domain.TokenPair
}

// AuthService composes the authentication steps into the four user facing
// operations: Login, VerifyTwoFactor, Refresh and Logout.
type AuthService struct {
	Store       store.Store
	Credentials *CredentialVerifier
	Gate        *AccountGate
	TwoFactor   *TwoFactorGate
	Tokens      *AccessTokenIssuer
	Sessions    *SessionManager
	Metrics     Recorder
}

// Login verifies credentials and account status, then either issues a 2FA
// challenge or starts a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	res, err := s.login(ctx, email, password)
	switch {
	case err != nil:
		s.recorder().LoginAttempt(Outcome(err))
	case res.TwoFactorRequired:
		s.recorder().LoginAttempt("challenge")
	default:
		s.recorder().LoginAttempt(Outcome(nil))
	}
	return res, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Credentials.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	tenant, err := s.Gate.Authorize(ctx, &user)
	if err != nil {
		return nil, err
	}

	reauthorize := func(u *domain.User) error {
		_, err := s.Gate.Authorize(ctx, u)
		return err
	}

	if s.TwoFactor.Requires(&user, tenant) {
		if err := s.TwoFactor.IssueChallenge(ctx, &user, reauthorize); err != nil {
			return nil, err
		}
		s.recorder().ChallengeIssued()
		return &LoginResult{TwoFactorRequired: true}, nil
	}

	pair, err := s.startSession(ctx, user, reauthorize)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: pair}, nil
}

// VerifyTwoFactor completes a challenged login. The code is single use:
// a second verification with the same code fails with
// ErrInvalidTwoFactorCode.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, email, code string) (*domain.TokenPair, error) {
	pair, err := s.verifyTwoFactor(ctx, email, code)
	s.recorder().TwoFactorAttempt(Outcome(err))
	if errors.Is(err, ErrInvalidTwoFactorCode) || errors.Is(err, ErrTwoFactorCodeExpired) {
		slogx.FromContext(ctx).Warn("2fa verification failed", slog.String("reason", Outcome(err)))
	}
	return pair, err
}

func (s *AuthService) verifyTwoFactor(ctx context.Context, email, code string) (*domain.TokenPair, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidTwoFactorCode
	}
	if err != nil {
		return nil, err
	}

	return s.startSession(ctx, user, func(u *domain.User) error {
		if _, err := s.Gate.Authorize(ctx, u); err != nil {
			return err
		}
		return s.TwoFactor.VerifyChallenge(u, code)
	})
}

// Refresh trades a refresh token for a new pair. Reuse of a consumed token
// revokes every session of its owner and fails with ErrReuseDetected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	pair, err := s.refresh(ctx, refreshToken)
	s.recorder().RefreshAttempt(Outcome(err))
	if errors.Is(err, ErrReuseDetected) {
		s.recorder().ReuseDetected()
	}
	return pair, err
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	user, next, err := s.Sessions.Rotate(ctx, refreshToken, func(u *domain.User) error {
		_, err := s.Gate.Authorize(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	access, ttl, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: next, TokenType: "Bearer", ExpiresIn: ttl}, nil
}

// Logout revokes one refresh token. It never fails from the caller's point
// of view; internal errors are only logged.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := s.Sessions.RevokeOne(ctx, refreshToken); err != nil {
		slogx.FromContext(ctx).Error("logout failed to revoke refresh token", slog.Any("error", err))
	}
}

// startSession runs prepare against user, adds a refresh token and saves,
// reloading and repeating on a concurrent modification. The access token
// is only signed once the save went through.
func (s *AuthService) startSession(
	ctx context.Context,
	user domain.User,
	prepare func(*domain.User) error,
) (*domain.TokenPair, error) {
	for attempt := range maxSaveAttempts {
		if attempt > 0 {
			fresh, err := s.Store.Users().GetUserByID(ctx, user.ID)
			if err != nil {
				return nil, err
			}
			user = fresh
		}

		if prepare != nil {
			if err := prepare(&user); err != nil {
				return nil, err
			}
		}

		refresh, err := s.Sessions.Issue(&user)
		if err != nil {
			return nil, err
		}

		err = s.Store.Users().SaveUser(ctx, &user)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		access, ttl, err := s.Tokens.Issue(&user)
		if err != nil {
			return nil, err
		}
		return &domain.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer", ExpiresIn: ttl}, nil
	}
	return nil, ErrContention
}

func (s *AuthService) recorder() Recorder {
	if s.Metrics == nil {
		return nopRecorder{}
	}
	return s.Metrics
}
