package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
	"github.com/verticelabs/authcore/pkg/idx"
	"github.com/verticelabs/authcore/pkg/slogx"
)

// TenantUpdate is a partial update; nil fields are left alone.
type TenantUpdate struct {
	Name              *string
	Active            *bool
	TwoFactorRequired *bool
}

type TenantService struct {
	Store store.Store
	Cache *TenantCache
}

func (s *TenantService) Create(ctx context.Context, name string, twoFactorRequired bool) (domain.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Tenant{}, ErrInvalidTenant
	}

	t := domain.Tenant{
		ID:     idx.New().String(),
		Name:   name,
		Active: true,
		Config: domain.TenantConfig{TwoFactorRequired: twoFactorRequired},
	}
	if err := s.Store.Tenants().CreateTenant(ctx, t); err != nil {
		return domain.Tenant{}, err
	}

	slogx.FromContext(ctx).Info("tenant created", slog.String("tenant_id", t.ID))
	return s.Get(ctx, t.ID)
}

func (s *TenantService) Get(ctx context.Context, id string) (domain.Tenant, error) {
	t, err := s.Store.Tenants().GetTenantByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Tenant{}, ErrTenantNotFound
	}
	return t, err
}

func (s *TenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.Store.Tenants().ListTenants(ctx)
}

// Update applies patch and drops the tenant from the gate cache so the
// change applies to the next login on this instance.
func (s *TenantService) Update(ctx context.Context, id string, patch TenantUpdate) (domain.Tenant, error) {
	var out domain.Tenant
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		t, err := tx.Tenants().GetTenantByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrTenantNotFound
		}
		if err != nil {
			return err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return ErrInvalidTenant
			}
			t.Name = name
		}
		if patch.Active != nil {
			t.Active = *patch.Active
		}
		if patch.TwoFactorRequired != nil {
			t.Config.TwoFactorRequired = *patch.TwoFactorRequired
		}

		if err := tx.Tenants().UpdateTenant(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return domain.Tenant{}, err
	}

	if s.Cache != nil {
		s.Cache.Invalidate(id)
	}
	slogx.FromContext(ctx).Info("tenant updated",
		slog.String("tenant_id", id),
		slog.Bool("active", out.Active),
		slog.Bool("two_factor_required", out.Config.TwoFactorRequired),
	)
	return out, nil
}
