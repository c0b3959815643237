//go:build e2e

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/verticelabs/authcore/pkg/authsdk"
)

// TestRateLimitLogin verifies that login attempts are limited per email.
// The strict limit is 5 req/min.
func TestRateLimitLogin(t *testing.T) {
	c := setupAuthContainerWithDefaultRateLimits(t)
	client := authsdk.NewSDKClient(c.BaseURL)

	for i := range 5 {
		_, err := client.Login(t.Context(), "victim@acme.test", "guess")
		require.ErrorIs(t, err, authsdk.ErrInvalidCredentials, "request %d should not be rate limited yet", i+1)
	}

	_, err := client.Login(t.Context(), "victim@acme.test", "guess")
	require.ErrorIs(t, err, authsdk.ErrRateLimited)

	// Another email still has its own budget.
	_, err = client.Login(t.Context(), "other@acme.test", "guess")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
}
