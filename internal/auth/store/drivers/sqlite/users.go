package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
)

const userColumns = `id, tenant_id, email, password_hash, roles, active, two_factor_enabled,
	pending_2fa_code, pending_2fa_expires_at, deactivated_at, version, created_at, updated_at`

type usersRepo struct {
	db dbtx

	// begin is nil when the repo is bound to an outer transaction.
	begin func(context.Context, *sql.TxOptions) (*sql.Tx, error)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *usersRepo) GetUserByRefreshToken(ctx context.Context, tokenHash string) (domain.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users
		WHERE id = (SELECT user_id FROM refresh_tokens WHERE token_hash = ?)`, tokenHash)
}

func (r *usersRepo) getUser(ctx context.Context, query string, arg any) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.RefreshTokens, err = listRefreshTokens(ctx, r.db, u.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load refresh tokens: %w", err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u                  domain.User
		tenantID, code     sql.NullString
		codeExpires, deact sql.NullTime
		roles              string
	)
	err := row.Scan(
		&u.ID, &tenantID, &u.Email, &u.PasswordHash, &roles, &u.Active, &u.TwoFactorEnabled,
		&code, &codeExpires, &deact, &u.Version, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.TenantID = mapNullStringPtr(tenantID)
	u.Roles = splitRoles(roles)
	u.PendingTwoFactorCode = mapNullStringPtr(code)
	u.PendingTwoFactorCodeExpiresAt = mapNullTimePtr(codeExpires)
	u.DeactivatedAt = mapNullTimePtr(deact)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	return r.inTx(ctx, func(db dbtx) error {
		now := time.Now().UTC()
		_, err := db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			u.ID, mapOptionalString(u.TenantID), u.Email, u.PasswordHash, joinRoles(u.Roles),
			u.Active, u.TwoFactorEnabled, mapOptionalString(u.PendingTwoFactorCode),
			mapOptionalTime(u.PendingTwoFactorCodeExpiresAt), mapOptionalTime(u.DeactivatedAt),
			now, now,
		)
		if err != nil {
			return mapConstraint(err)
		}
		return replaceRefreshTokens(ctx, db, u.ID, u.RefreshTokens)
	})
}

func (r *usersRepo) SaveUser(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	err := r.inTx(ctx, func(db dbtx) error {
		res, err := db.ExecContext(ctx, `UPDATE users SET
				tenant_id = ?, email = ?, password_hash = ?, roles = ?, active = ?,
				two_factor_enabled = ?, pending_2fa_code = ?, pending_2fa_expires_at = ?,
				deactivated_at = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`,
			mapOptionalString(u.TenantID), u.Email, u.PasswordHash, joinRoles(u.Roles), u.Active,
			u.TwoFactorEnabled, mapOptionalString(u.PendingTwoFactorCode),
			mapOptionalTime(u.PendingTwoFactorCodeExpiresAt), mapOptionalTime(u.DeactivatedAt),
			now, u.ID, u.Version,
		)
		if err != nil {
			return mapConstraint(err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists int
			err := db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, u.ID).Scan(&exists)
			if err != nil {
				return mapNotFound(err)
			}
			return store.ErrConflict
		}

		return replaceRefreshTokens(ctx, db, u.ID, u.RefreshTokens)
	})
	if err != nil {
		return err
	}

	u.Version++
	u.UpdatedAt = now
	return nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func (r *usersRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// inTx runs fn in a transaction of its own unless the repo already belongs
// to one.
func (r *usersRepo) inTx(ctx context.Context, fn func(db dbtx) error) error {
	if r.begin == nil {
		return fn(r.db)
	}

	tx, err := r.begin(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
