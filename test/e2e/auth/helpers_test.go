//go:build e2e

package auth_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/verticelabs/authcore/pkg/authsdk"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "authcore-test:latest"

	bootstrapToken = "test-bootstrap-token-12345"
	adminEmail     = "root@platform.test"
	adminPassword  = "Admin123!secret"
	userPassword   = "User123!secret"

	codeLogMessage = "2fa code not mailed, smtp is not configured"
)

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

type authContainer struct {
	BaseURL   string
	container testcontainers.Container
}

// relaxedRateLimits keeps the strict production limits from failing tests
// that make many rapid requests.
var relaxedRateLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "1000",
	"RATELIMIT_STRICT_WINDOW_SEC": "60",
	"RATELIMIT_STRICT_BURST":      "1000",
	"RATELIMIT_MODERATE_REQUESTS": "1000",
	"RATELIMIT_MODERATE_BURST":    "1000",
}

// setupAuthContainer starts the auth service with relaxed rate limits.
func setupAuthContainer(t *testing.T) *authContainer {
	return startAuthContainer(t, relaxedRateLimits)
}

// setupAuthContainerWithDefaultRateLimits keeps production limits, for the
// tests that check rate limiting itself.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) *authContainer {
	return startAuthContainer(t, nil)
}

func startAuthContainer(t *testing.T, extraEnv map[string]string) *authContainer {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"BOOTSTRAP_TOKEN":       bootstrapToken,
		"AUTH_DATABASE_FILE":    "/data/auth.db",
		"AUTH_PEPPER_FILE":      "/data/pepper",
		"AUTH_SIGNING_KEY_FILE": "/data/signing.key",
		"AUTH_ISSUER":           "authcore-e2e",
		"ENV":                   "test",
		"LOG_LEVEL":             "info",
		"LOG_FORMAT":            "json",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return &authContainer{
		BaseURL:   fmt.Sprintf("http://%s:%s", host, mappedPort.Port()),
		container: container,
	}
}

// lastTwoFactorCode reads the most recent code logged for email. Without
// SMTP the service writes codes to its log instead of mailing them.
func (c *authContainer) lastTwoFactorCode(t *testing.T, email string) string {
	t.Helper()

	var code string
	require.Eventually(t, func() bool {
		logs, err := c.container.Logs(context.Background())
		if err != nil {
			return false
		}
		defer logs.Close()

		scanner := bufio.NewScanner(logs)
		for scanner.Scan() {
			line := scanner.Text()
			start := strings.IndexByte(line, '{')
			if start < 0 {
				continue
			}

			var entry struct {
				Msg  string `json:"msg"`
				To   string `json:"to"`
				Code string `json:"code"`
			}
			if json.Unmarshal([]byte(line[start:]), &entry) != nil {
				continue
			}
			if entry.Msg == codeLogMessage && entry.To == email {
				code = entry.Code
			}
		}
		return code != ""
	}, 5*time.Second, 100*time.Millisecond, "no 2fa code logged for %s", email)

	return code
}

// bootstrapAdmin creates the first super admin and returns a session for it.
func bootstrapAdmin(t *testing.T, client *authsdk.SDKClient) *authsdk.Session {
	t.Helper()

	resp, err := client.Bootstrap(t.Context(), bootstrapToken, authsdk.BootstrapRequest{
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	})
	require.NoError(t, err, "Bootstrap should succeed")
	require.NotEmpty(t, resp.UserID)

	session, err := client.AuthenticateWithPassword(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err, "Admin login should succeed")
	return session
}

// createTenantUser creates a tenant and a user in it and returns both.
func createTenantUser(
	t *testing.T,
	admin *authsdk.Session,
	tenantName, email string,
	roles ...string,
) (*authsdk.TenantResponse, *authsdk.UserResponse) {
	t.Helper()

	tenant, err := admin.CreateTenant(t.Context(), authsdk.CreateTenantRequest{Name: tenantName})
	require.NoError(t, err)

	if len(roles) == 0 {
		roles = []string{"TENANT_USER"}
	}
	user, err := admin.RegisterUser(t.Context(), authsdk.RegisterUserRequest{
		TenantID: &tenant.ID,
		Email:    email,
		Password: userPassword,
		Roles:    roles,
	})
	require.NoError(t, err)

	return tenant, user
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *authsdk.TokenResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "Access token should not be empty")
	require.NotEmpty(t, resp.RefreshToken, "Refresh token should not be empty")
	require.Equal(t, "Bearer", resp.TokenType, "Token type should be Bearer")
	require.Positive(t, resp.ExpiresIn)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
