package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
)

const tenantColumns = `id, name, active, two_factor_required, created_at, updated_at`

type tenantsRepo struct {
	db dbtx
}

func scanTenant(row pgx.Row) (domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Active, &t.Config.TwoFactorRequired, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *tenantsRepo) GetTenantByID(ctx context.Context, id string) (domain.Tenant, error) {
	t, err := scanTenant(r.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return domain.Tenant{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tenantsRepo) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Tenant, error) {
		return scanTenant(row)
	})
}

func (r *tenantsRepo) CreateTenant(ctx context.Context, t domain.Tenant) error {
	_, err := r.db.Exec(ctx, `INSERT INTO tenants (`+tenantColumns+`) VALUES ($1, $2, $3, $4, $5, $5)`,
		t.ID, t.Name, t.Active, t.Config.TwoFactorRequired, time.Now().UTC())
	return mapConstraint(err)
}

func (r *tenantsRepo) UpdateTenant(ctx context.Context, t domain.Tenant) error {
	tag, err := r.db.Exec(ctx, `UPDATE tenants
		SET name = $1, active = $2, two_factor_required = $3, updated_at = $4 WHERE id = $5`,
		t.Name, t.Active, t.Config.TwoFactorRequired, time.Now().UTC(), t.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
