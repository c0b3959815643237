package store

import (
	"context"
	"errors"
	"time"

	"github.com/verticelabs/authcore/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned by SaveUser when the user was modified since it
	// was loaded. Callers reload and decide again.
	ErrConflict = errors.New("store: concurrent modification")
)

// Store is the root data access interface implemented by the sqlite and
// postgres drivers. Sub-repositories are reached through methods so a Tx
// can hand out the same repositories bound to the transaction.
type Store interface {
	Users() Users
	Tenants() Tenants

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller must Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users persists the User aggregate, refresh tokens included. Every read
// returns a fresh copy, so callers own the slices they get back.
type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByRefreshToken finds the owner of a refresh token fingerprint.
	GetUserByRefreshToken(ctx context.Context, tokenHash string) (domain.User, error)

	// CreateUser inserts u with version 1.
	CreateUser(ctx context.Context, u domain.User) error

	// SaveUser writes the whole aggregate if its version still matches the
	// stored one, and bumps u.Version on success. A stale version yields
	// ErrConflict and nothing is written.
	SaveUser(ctx context.Context, u *domain.User) error

	IsEmpty(ctx context.Context) (bool, error)

	// DeleteExpiredRefreshTokens removes entries that expired before now and
	// reports how many were removed.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type Tenants interface {
	GetTenantByID(ctx context.Context, id string) (domain.Tenant, error)
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	CreateTenant(ctx context.Context, t domain.Tenant) error

	// UpdateTenant overwrites name, active and config.
	UpdateTenant(ctx context.Context, t domain.Tenant) error
}
