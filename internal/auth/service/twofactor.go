package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
	"github.com/verticelabs/authcore/pkg/cryptox"
	"github.com/verticelabs/authcore/pkg/slogx"
)

// DefaultCodeTTL is how long an emailed 2FA code stays valid.
const DefaultCodeTTL = 5 * time.Minute

// SettingsProvider exposes process-wide switches read on every decision.
type SettingsProvider interface {
	ForceTwoFactor() bool
}

// CodeSender delivers a one-time code out of band.
type CodeSender interface {
	SendTwoFactorCode(ctx context.Context, email, code string) error
}

// TwoFactorGate decides when a login needs a second factor and manages the
// emailed one-time code.
type TwoFactorGate struct {
	Store    store.Store
	Settings SettingsProvider
	Sender   CodeSender
	CodeTTL  time.Duration
	Now      Clock
}

// Requires reports whether user must complete a 2FA challenge. Any of the
// global switch, the tenant policy or the user's own preference is enough.
func (g *TwoFactorGate) Requires(user *domain.User, tenant *domain.Tenant) bool {
	if g.Settings != nil && g.Settings.ForceTwoFactor() {
		return true
	}
	if tenant != nil && tenant.Config.TwoFactorRequired {
		return true
	}
	return user.TwoFactorEnabled
}

// IssueChallenge stores a fresh code on the user, replacing any pending one,
// and delivers it. The code is persisted before it is sent so a delivered
// code is always verifiable. On success user reflects the saved state.
// When a concurrent write forces a reload, guard (if non-nil) is run against
// the fresh user before anything is stored.
func (g *TwoFactorGate) IssueChallenge(ctx context.Context, user *domain.User, guard func(*domain.User) error) error {
	code, err := cryptox.GenerateNumericCode()
	if err != nil {
		return err
	}

	for attempt := range maxSaveAttempts {
		if attempt > 0 {
			fresh, err := g.Store.Users().GetUserByID(ctx, user.ID)
			if err != nil {
				return err
			}
			*user = fresh
			if guard != nil {
				if err := guard(user); err != nil {
					return err
				}
			}
		}

		expires := g.Now.now().Add(g.codeTTL())
		user.PendingTwoFactorCode = &code
		user.PendingTwoFactorCodeExpiresAt = &expires

		err := g.Store.Users().SaveUser(ctx, user)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("store 2fa code: %w", err)
		}

		if err := g.Sender.SendTwoFactorCode(ctx, user.Email, code); err != nil {
			return fmt.Errorf("deliver 2fa code: %w", err)
		}
		slogx.FromContext(ctx).Info("2fa challenge issued", slog.String("user_id", user.ID))
		return nil
	}
	return ErrContention
}

// VerifyChallenge checks code against the pending one and clears it on
// success. The caller persists the user.
func (g *TwoFactorGate) VerifyChallenge(user *domain.User, code string) error {
	pending := user.PendingTwoFactorCode
	if pending == nil || subtle.ConstantTimeCompare([]byte(*pending), []byte(code)) != 1 {
		return ErrInvalidTwoFactorCode
	}

	expires := user.PendingTwoFactorCodeExpiresAt
	if expires == nil || !g.Now.now().Before(*expires) {
		return ErrTwoFactorCodeExpired
	}

	user.ClearTwoFactorChallenge()
	return nil
}

func (g *TwoFactorGate) codeTTL() time.Duration {
	if g.CodeTTL <= 0 {
		return DefaultCodeTTL
	}
	return g.CodeTTL
}
