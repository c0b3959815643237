/*
Package authsdk is the Go client for the authcore authentication service.

# SDKClient and Session

SDKClient performs the public operations: login, 2FA verification, refresh,
logout, health checks and the one-time bootstrap. A Session wraps a token
pair and performs the authenticated operations, refreshing the access token
shortly before it expires.

	client := authsdk.NewSDKClient("https://auth.example.com")

	session, err := client.AuthenticateWithPassword(ctx, email, password)
	if errors.Is(err, authsdk.ErrTwoFactorRequired) {
		// A six digit code was mailed to the user.
		session, err = client.AuthenticateWithTwoFactor(ctx, email, code)
	}
	if err != nil {
		return err
	}

	me, err := session.Me(ctx)

# Refresh tokens

Refresh tokens are single use. Every refresh returns a new one and spends
the old one. Presenting a spent token again is treated as theft: the server
revokes every session of the account and answers with
ErrRefreshTokenReused.

# Errors

Failed calls return *APIError. Compare with the predefined values:

	if errors.Is(err, authsdk.ErrInvalidCredentials) { ... }

# Tenants

Tenant users always act in their own tenant. A super admin acts globally
unless ActAs selects a tenant, which is sent as the X-Tenant-ID header.
*/
package authsdk
