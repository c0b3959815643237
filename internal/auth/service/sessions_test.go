package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/pkg/cryptox"
)

func TestRefresh_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.tenant(t, false)
	u := env.user(t, &tenant, "ana@acme.test", false)
	ctx := context.Background()

	first := env.login(t, u.Email)

	env.clock.Advance(time.Minute)
	second, err := env.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	claims, err := env.auth.Tokens.Verify(second.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)

	stored := env.reload(t, u.ID)
	require.Len(t, stored.RefreshTokens, 2)
	require.Equal(t, cryptox.FingerprintToken(first.RefreshToken), stored.RefreshTokens[0].TokenHash)
	require.True(t, stored.RefreshTokens[0].Used)
	require.Equal(t, cryptox.FingerprintToken(second.RefreshToken), stored.RefreshTokens[1].TokenHash)
	require.False(t, stored.RefreshTokens[1].Used)
}

func TestRefresh_ReuseRevokesAllSessions(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.tenant(t, false)
	u := env.user(t, &tenant, "ana@acme.test", false)
	ctx := context.Background()

	r1 := env.login(t, u.Email)
	other := env.login(t, u.Email)

	r2, err := env.auth.Refresh(ctx, r1.RefreshToken)
	require.NoError(t, err)

	_, err = env.auth.Refresh(ctx, r1.RefreshToken)
	require.ErrorIs(t, err, ErrReuseDetected)
	require.Empty(t, env.reload(t, u.ID).RefreshTokens)

	// The legitimate successor and unrelated sessions are gone too.
	_, err = env.auth.Refresh(ctx, r2.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, err = env.auth.Refresh(ctx, other.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	// Access tokens stay valid until they expire.
	_, err = env.auth.Tokens.Verify(r2.AccessToken)
	require.NoError(t, err)
}

func TestRefresh_UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Refresh(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = env.auth.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.tenant(t, false)
	u := env.user(t, &tenant, "ana@acme.test", false)

	pair := env.login(t, u.Email)

	env.clock.Advance(DefaultRefreshTTL - time.Second)
	pair, err := env.auth.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	env.clock.Advance(DefaultRefreshTTL)
	_, err = env.auth.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_PrunesExpiredEntries(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.tenant(t, false)
	u := env.user(t, &tenant, "ana@acme.test", false)

	stale := env.login(t, u.Email)
	env.clock.Advance(20 * 24 * time.Hour)
	fresh := env.login(t, u.Email)
	env.clock.Advance(15 * 24 * time.Hour)

	next, err := env.auth.Refresh(context.Background(), fresh.RefreshToken)
	require.NoError(t, err)

	stored := env.reload(t, u.ID)
	require.Len(t, stored.RefreshTokens, 2)
	for _, rt := range stored.RefreshTokens {
		require.NotEqual(t, cryptox.FingerprintToken(stale.RefreshToken), rt.TokenHash)
	}
	require.Equal(t, cryptox.FingerprintToken(next.RefreshToken), stored.RefreshTokens[1].TokenHash)
}

func TestRefresh_InactiveTenantKeepsToken(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.tenant(t, false)
	u := env.user(t, &tenant, "ana@acme.test", false)
	ctx := context.Background()

	pair := env.login(t, u.Email)

	inactive := false
	_, err := env.tenants.Update(ctx, tenant.ID, TenantUpdate{Active: &inactive})
	require.NoError(t, err)

	_, err = env.auth.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrTenantInactive)
	require.False(t, env.reload(t, u.ID).RefreshTokens[0].Used)

	active := true
	_, err = env.tenants.Update(ctx, tenant.ID, TenantUpdate{Active: &active})
	require.NoError(t, err)

	_, err = env.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_ConcurrentRotationHasOneWinner(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.tenant(t, false)
	u := env.user(t, &tenant, "ana@acme.test", false)

	pair := env.login(t, u.Email)

	const workers = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, workers)
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.auth.Refresh(context.Background(), pair.RefreshToken)
		}()
	}
	wg.Wait()

	var ok, reuse int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrReuseDetected):
			reuse++
		default:
			require.ErrorIs(t, err, ErrInvalidRefreshToken)
		}
	}
	require.Equal(t, 1, ok)
	require.GreaterOrEqual(t, reuse, 1)
	require.Empty(t, env.reload(t, u.ID).RefreshTokens)
}

func TestLogout_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.tenant(t, false)
	u := env.user(t, &tenant, "ana@acme.test", false)
	ctx := context.Background()

	kept := env.login(t, u.Email)
	gone := env.login(t, u.Email)

	env.auth.Logout(ctx, gone.RefreshToken)
	env.auth.Logout(ctx, gone.RefreshToken)
	env.auth.Logout(ctx, "never-issued")
	env.auth.Logout(ctx, "")

	stored := env.reload(t, u.ID)
	require.Len(t, stored.RefreshTokens, 1)
	require.Equal(t, cryptox.FingerprintToken(kept.RefreshToken), stored.RefreshTokens[0].TokenHash)

	_, err := env.auth.Refresh(ctx, gone.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestPruneExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tokens := []struct {
		hash    string
		expires time.Time
	}{
		{"a", now.Add(-time.Hour)},
		{"b", now.Add(time.Hour)},
		{"c", now},
		{"d", now.Add(2 * time.Hour)},
	}

	list := make([]domain.RefreshToken, 0, len(tokens))
	for _, tk := range tokens {
		list = append(list, domain.RefreshToken{TokenHash: tk.hash, ExpiresAt: tk.expires})
	}

	kept := pruneExpired(list, now)
	require.Len(t, kept, 2)
	require.Equal(t, "b", kept[0].TokenHash)
	require.Equal(t, "d", kept[1].TokenHash)
	require.Equal(t, 1, indexOfToken(kept, "d"))
	require.Equal(t, -1, indexOfToken(kept, "a"))
}
