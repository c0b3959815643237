//go:build e2e

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/verticelabs/authcore/pkg/authsdk"
)

// TestLoginRefreshLogout covers the session lifecycle of a tenant user:
// login, rotation, logout, and the refusal of the logged out token.
func TestLoginRefreshLogout(t *testing.T) {
	c := setupAuthContainer(t)
	client := authsdk.NewSDKClient(c.BaseURL)
	admin := bootstrapAdmin(t, client)
	tenant, user := createTenantUser(t, admin, "Acme", "alice@acme.test")

	login, err := client.Login(t.Context(), "alice@acme.test", userPassword)
	require.NoError(t, err)
	require.False(t, login.Requires2FA)
	assertTokenResponse(t, &login.TokenResponse)

	rotated, err := client.Refresh(t.Context(), login.RefreshToken)
	require.NoError(t, err)
	assertTokenResponse(t, rotated)
	require.NotEqual(t, login.RefreshToken, rotated.RefreshToken, "Refresh token should be rotated")

	session := client.NewSessionFromTokens(rotated.AccessToken, rotated.RefreshToken, rotated.ExpiresIn)
	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, user.ID, me.UserID)
	require.Equal(t, tenant.ID, me.TenantID)

	require.NoError(t, client.Logout(t.Context(), rotated.RefreshToken))
	require.NoError(t, client.Logout(t.Context(), rotated.RefreshToken), "Logout is idempotent")

	_, err = client.Refresh(t.Context(), rotated.RefreshToken)
	require.ErrorIs(t, err, authsdk.ErrInvalidRefreshToken)
}

// TestRefreshTokenReuse replays a consumed refresh token and checks that
// every session of the user is revoked.
func TestRefreshTokenReuse(t *testing.T) {
	c := setupAuthContainer(t)
	client := authsdk.NewSDKClient(c.BaseURL)
	admin := bootstrapAdmin(t, client)
	createTenantUser(t, admin, "Acme", "bob@acme.test")

	laptop, err := client.Login(t.Context(), "bob@acme.test", userPassword)
	require.NoError(t, err)
	phone, err := client.Login(t.Context(), "bob@acme.test", userPassword)
	require.NoError(t, err)

	_, err = client.Refresh(t.Context(), laptop.RefreshToken)
	require.NoError(t, err)

	_, err = client.Refresh(t.Context(), laptop.RefreshToken)
	require.ErrorIs(t, err, authsdk.ErrRefreshTokenReused)

	_, err = client.Refresh(t.Context(), phone.RefreshToken)
	require.ErrorIs(t, err, authsdk.ErrInvalidRefreshToken, "Other sessions are revoked too")
}

// TestInvalidCredentials checks that a wrong password and an unknown email
// are indistinguishable.
func TestInvalidCredentials(t *testing.T) {
	c := setupAuthContainer(t)
	client := authsdk.NewSDKClient(c.BaseURL)
	admin := bootstrapAdmin(t, client)
	createTenantUser(t, admin, "Acme", "carol@acme.test")

	_, errWrong := client.Login(t.Context(), "carol@acme.test", "wrong-password")
	_, errUnknown := client.Login(t.Context(), "nobody@acme.test", userPassword)

	require.ErrorIs(t, errWrong, authsdk.ErrInvalidCredentials)
	require.ErrorIs(t, errUnknown, authsdk.ErrInvalidCredentials)
	require.Equal(t, errWrong.Error(), errUnknown.Error())
}
