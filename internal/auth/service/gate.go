package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
	"github.com/verticelabs/authcore/pkg/slogx"
)

// AccountGate blocks inactive accounts and users of inactive tenants.
type AccountGate struct {
	Tenants *TenantCache
}

// Authorize returns the user's tenant, or nil for a super admin, when both
// the account and its tenant are active. A tenant that no longer exists is
// treated as inactive.
func (g *AccountGate) Authorize(ctx context.Context, user *domain.User) (*domain.Tenant, error) {
	l := slogx.FromContext(ctx)

	if !user.Active {
		l.Warn("login blocked for inactive account", slog.String("user_id", user.ID))
		return nil, ErrAccountInactive
	}
	if user.TenantID == nil {
		return nil, nil
	}

	tenant, err := g.Tenants.Get(ctx, *user.TenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("user references missing tenant",
				slog.String("user_id", user.ID),
				slog.String("tenant_id", *user.TenantID),
			)
			return nil, ErrTenantInactive
		}
		return nil, err
	}
	if !tenant.Active {
		l.Warn("login blocked for inactive tenant",
			slog.String("user_id", user.ID),
			slog.String("tenant_id", tenant.ID),
		)
		return nil, ErrTenantInactive
	}
	return &tenant, nil
}
