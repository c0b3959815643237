package sqlite

import (
	"context"

	"github.com/verticelabs/authcore/internal/auth/domain"
)

func listRefreshTokens(ctx context.Context, db dbtx, userID string) ([]domain.RefreshToken, error) {
	rows, err := db.QueryContext(ctx, `SELECT token_hash, used, created_at, expires_at
		FROM refresh_tokens WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RefreshToken
	for rows.Next() {
		var t domain.RefreshToken
		if err := rows.Scan(&t.TokenHash, &t.Used, &t.CreatedAt, &t.ExpiresAt); err != nil {
			return nil, err
		}
		t.CreatedAt = t.CreatedAt.UTC()
		t.ExpiresAt = t.ExpiresAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// replaceRefreshTokens makes the stored list for userID equal to tokens.
func replaceRefreshTokens(ctx context.Context, db dbtx, userID string, tokens []domain.RefreshToken) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID); err != nil {
		return err
	}
	for i, t := range tokens {
		_, err := db.ExecContext(ctx, `INSERT INTO refresh_tokens
			(token_hash, user_id, position, used, created_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.TokenHash, userID, i, t.Used, t.CreatedAt.UTC(), t.ExpiresAt.UTC(),
		)
		if err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}
