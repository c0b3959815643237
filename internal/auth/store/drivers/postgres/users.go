package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
)

const userColumns = `id, tenant_id, email, password_hash, roles, active, two_factor_enabled,
	pending_2fa_code, pending_2fa_expires_at, deactivated_at, version, created_at, updated_at`

type usersRepo struct {
	db dbtx

	// begin is nil when the repo is bound to an outer transaction.
	begin func(context.Context) (pgx.Tx, error)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *usersRepo) GetUserByRefreshToken(ctx context.Context, tokenHash string) (domain.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users
		WHERE id = (SELECT user_id FROM refresh_tokens WHERE token_hash = $1)`, tokenHash)
}

func (r *usersRepo) getUser(ctx context.Context, query string, arg any) (domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.Roles, &u.Active, &u.TwoFactorEnabled,
		&u.PendingTwoFactorCode, &u.PendingTwoFactorCodeExpiresAt, &u.DeactivatedAt,
		&u.Version, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	rows, err := r.db.Query(ctx, `SELECT token_hash, used, created_at, expires_at
		FROM refresh_tokens WHERE user_id = $1 ORDER BY position`, u.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load refresh tokens: %w", err)
	}
	u.RefreshTokens, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RefreshToken, error) {
		var t domain.RefreshToken
		err := row.Scan(&t.TokenHash, &t.Used, &t.CreatedAt, &t.ExpiresAt)
		return t, err
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("load refresh tokens: %w", err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	return r.inTx(ctx, func(db dbtx) error {
		now := time.Now().UTC()
		_, err := db.Exec(ctx, `INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $11)`,
			u.ID, u.TenantID, u.Email, u.PasswordHash, u.Roles, u.Active, u.TwoFactorEnabled,
			u.PendingTwoFactorCode, u.PendingTwoFactorCodeExpiresAt, u.DeactivatedAt, now,
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
		tag, err := db.Exec(ctx, `UPDATE users SET
				tenant_id = $1, email = $2, password_hash = $3, roles = $4, active = $5,
				two_factor_enabled = $6, pending_2fa_code = $7, pending_2fa_expires_at = $8,
				deactivated_at = $9, version = version + 1, updated_at = $10
			WHERE id = $11 AND version = $12`,
			u.TenantID, u.Email, u.PasswordHash, u.Roles, u.Active, u.TwoFactorEnabled,
			u.PendingTwoFactorCode, u.PendingTwoFactorCodeExpiresAt, u.DeactivatedAt,
			now, u.ID, u.Version,
		)
		if err != nil {
			return mapConstraint(err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, u.ID).Scan(&exists)
			if err != nil {
				return err
			}
			if !exists {
				return store.ErrNotFound
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
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists)
	return !exists, err
}

func (r *usersRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func replaceRefreshTokens(ctx context.Context, db dbtx, userID string, tokens []domain.RefreshToken) error {
	if _, err := db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for i, t := range tokens {
		_, err := db.Exec(ctx, `INSERT INTO refresh_tokens
			(token_hash, user_id, position, used, created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			t.TokenHash, userID, i, t.Used, t.CreatedAt, t.ExpiresAt,
		)
		if err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

func (r *usersRepo) inTx(ctx context.Context, fn func(db dbtx) error) error {
	if r.begin == nil {
		return fn(r.db)
	}

	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
