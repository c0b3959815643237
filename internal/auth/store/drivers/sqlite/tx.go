package sqlite

import (
	"context"
	"database/sql"

	"github.com/verticelabs/authcore/internal/auth/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore { return &txStore{tx: tx} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error               { return nil }
func (t *txStore) Ping(context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }
func (t *txStore) WithTx(context.Context, func(store.Tx) error) error {
	return sql.ErrTxDone
}

// Saves inside a transaction join it instead of opening their own.
func (t *txStore) Users() store.Users     { return &usersRepo{db: t.tx} }
func (t *txStore) Tenants() store.Tenants { return &tenantsRepo{db: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil }
