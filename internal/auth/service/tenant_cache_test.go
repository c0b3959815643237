package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store"
)

func TestTenantCache_ServesCachedUntilInvalidated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tn := env.tenant(t, false)

	cache := NewTenantCache(env.store, time.Minute)
	got, err := cache.Get(ctx, tn.ID)
	require.NoError(t, err)
	require.True(t, got.Active)

	// Written behind the cache's back.
	tn.Active = false
	require.NoError(t, env.store.Tenants().UpdateTenant(ctx, tn))

	got, err = cache.Get(ctx, tn.ID)
	require.NoError(t, err)
	require.True(t, got.Active, "stale until invalidated or expired")

	cache.Invalidate(tn.ID)
	got, err = cache.Get(ctx, tn.ID)
	require.NoError(t, err)
	require.False(t, got.Active)
}

func TestTenantCache_ZeroTTLReadsThrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tn := env.tenant(t, false)

	cache := NewTenantCache(env.store, 0)
	_, err := cache.Get(ctx, tn.ID)
	require.NoError(t, err)

	tn.Active = false
	require.NoError(t, env.store.Tenants().UpdateTenant(ctx, tn))

	got, err := cache.Get(ctx, tn.ID)
	require.NoError(t, err)
	require.False(t, got.Active)
}

func TestTenantCache_MissIsNotCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cache := NewTenantCache(env.store, time.Minute)
	_, err := cache.Get(ctx, "01J0000000000000000000000")
	require.ErrorIs(t, err, store.ErrNotFound)

	tn := env.tenant(t, false)
	got, err := cache.Get(ctx, tn.ID)
	require.NoError(t, err)
	require.Equal(t, tn.ID, got.ID)
}

// tenantHookStore calls afterGet once a tenant read has completed, before
// its result is handed back.
type tenantHookStore struct {
	store.Store
	afterGet func(ctx context.Context, id string)
}

func (s *tenantHookStore) Tenants() store.Tenants {
	return &hookedTenants{Tenants: s.Store.Tenants(), parent: s}
}

type hookedTenants struct {
	store.Tenants
	parent *tenantHookStore
}

func (r *hookedTenants) GetTenantByID(ctx context.Context, id string) (domain.Tenant, error) {
	t, err := r.Tenants.GetTenantByID(ctx, id)
	if hook := r.parent.afterGet; hook != nil {
		hook(ctx, id)
	}
	return t, err
}

func TestTenantCache_InvalidateDuringLoadIsNotOverwritten(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tn := env.tenant(t, false)

	hooked := &tenantHookStore{Store: env.store}
	cache := NewTenantCache(hooked, time.Minute)

	// The first read sees the active tenant; a deactivation and its
	// invalidation land before that read returns.
	hooked.afterGet = func(ctx context.Context, id string) {
		hooked.afterGet = nil
		updated := tn
		updated.Active = false
		require.NoError(t, env.store.Tenants().UpdateTenant(ctx, updated))
		cache.Invalidate(id)
	}

	got, err := cache.Get(ctx, tn.ID)
	require.NoError(t, err)
	require.True(t, got.Active)

	got, err = cache.Get(ctx, tn.ID)
	require.NoError(t, err)
	require.False(t, got.Active, "stale load must not refill the cache")
}

func TestTenantCache_LoadIgnoresCallerCancellation(t *testing.T) {
	env := newTestEnv(t)
	tn := env.tenant(t, false)

	var sawErr error
	hooked := &tenantHookStore{Store: env.store, afterGet: func(ctx context.Context, _ string) {
		sawErr = ctx.Err()
	}}
	cache := NewTenantCache(hooked, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := cache.Get(ctx, tn.ID)
	require.NoError(t, err)
	require.NoError(t, sawErr)
	require.Equal(t, tn.ID, got.ID)
}
