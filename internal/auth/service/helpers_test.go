package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/store/drivers/sqlite"
	"github.com/verticelabs/authcore/pkg/cryptox"
	"github.com/verticelabs/authcore/pkg/jwtx"
)

const testPassword = "correct horse battery"

func TestMain(m *testing.M) {
	cryptox.SetPepper("service-test-pepper")
	os.Exit(m.Run())
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
	sent  int
}

func (s *captureSender) SendTwoFactorCode(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[email] = code
	s.sent++
	return nil
}

func (s *captureSender) last(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[email]
}

type forceFlag struct{ atomic.Bool }

func (f *forceFlag) ForceTwoFactor() bool { return f.Load() }

type testEnv struct {
	store   *sqlite.Store
	clock   *fakeClock
	sender  *captureSender
	force   *forceFlag
	auth    *AuthService
	users   *UserService
	tenants *TenantService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	key := []byte("service-test-signing-key-32bytes!")
	signer, err := jwtx.NewSignerHS256(key)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	verifier, err := jwtx.NewVerifierHS256(key, "authcore-test")
	require.NoError(t, err)
	verifier.WithClock(clock.Now)

	sender := &captureSender{}
	force := &forceFlag{}
	cache := NewTenantCache(st, time.Minute)

	env := &testEnv{
		store:   st,
		clock:   clock,
		sender:  sender,
		force:   force,
		users:   &UserService{Store: st, Now: clock.Now},
		tenants: &TenantService{Store: st, Cache: cache},
	}
	env.auth = &AuthService{
		Store:       st,
		Credentials: &CredentialVerifier{Store: st},
		Gate:        &AccountGate{Tenants: cache},
		TwoFactor: &TwoFactorGate{
			Store:    st,
			Settings: force,
			Sender:   sender,
			Now:      clock.Now,
		},
		Tokens: &AccessTokenIssuer{
			Signer:   signer,
			Verifier: verifier,
			Issuer:   "authcore-test",
			TTL:      15 * time.Minute,
			Now:      clock.Now,
		},
		Sessions: &SessionManager{Store: st, Now: clock.Now},
	}
	return env
}

func (e *testEnv) tenant(t *testing.T, twoFactorRequired bool) domain.Tenant {
	t.Helper()
	tn, err := e.tenants.Create(context.Background(), "Acme", twoFactorRequired)
	require.NoError(t, err)
	return tn
}

func (e *testEnv) user(t *testing.T, tenant *domain.Tenant, email string, twoFactor bool) domain.User {
	t.Helper()

	in := RegisterUserInput{
		Email:            email,
		Password:         testPassword,
		Roles:            []string{domain.RoleSuperAdmin},
		TwoFactorEnabled: twoFactor,
	}
	if tenant != nil {
		id := tenant.ID
		in.TenantID = &id
		in.Roles = []string{domain.RoleTenantUser}
	}

	u, err := e.users.Register(context.Background(), in)
	require.NoError(t, err)
	return u
}

func (e *testEnv) reload(t *testing.T, id string) domain.User {
	t.Helper()
	u, err := e.store.Users().GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

// login performs a login that must not be challenged.
func (e *testEnv) login(t *testing.T, email string) *domain.TokenPair {
	t.Helper()
	res, err := e.auth.Login(context.Background(), email, testPassword)
	require.NoError(t, err)
	require.False(t, res.TwoFactorRequired)
	require.NotNil(t, res.Tokens)
	return res.Tokens
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
