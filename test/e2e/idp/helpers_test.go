package idp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/authsite/idp/pkg/clientsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Container setup and browser helpers for the identity provider
 * end-to-end tests.
 */

const (
	testImageName = "authsite-idp-test:latest"

	gameClientID     = "game_site"
	gameClientSecret = "game-site-e2e-secret"
	gameRedirectURI  = "https://game.example.com/auth/callback"
)

// TestMain builds the Docker image once before all tests and removes it
// afterwards. The suite is skipped with -short.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "skipping container tests in short mode")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building identity provider Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up identity provider Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/idp/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run()
}

// setupContainer starts the identity provider and returns its base URL.
func setupContainer(t *testing.T) (string, func()) {
	t.Helper()
	ctx := context.Background()

	clients, err := json.Marshal([]map[string]string{{
		"client_id":     gameClientID,
		"site_name":     "Game",
		"redirect_uri":  gameRedirectURI,
		"client_secret": gameClientSecret,
	}})
	require.NoError(t, err)

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env: map[string]string{
			"JWT_SECRET":    "e2e-jwt-secret",
			"COOKIE_SECURE": "false",
			"IDP_CLIENTS":   string(clients),
			"ENV":           "test",
			"LOG_LEVEL":     "info",
			"LOG_FORMAT":    "json",
			// Tests make many rapid requests from one address
			"RATELIMIT_STRICT_REQUESTS":   "1000",
			"RATELIMIT_STRICT_WINDOW_SEC": "60",
			"RATELIMIT_STRICT_BURST":      "1000",
			"RATELIMIT_MODERATE_REQUESTS": "1000",
			"RATELIMIT_MODERATE_BURST":    "1000",
		},
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// browser is an http.Client with a cookie jar, standing in for a user agent.
type browser struct {
	baseURL string
	client  *http.Client
}

func newBrowser(t *testing.T, baseURL string) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{baseURL: baseURL, client: &http.Client{Jar: jar, Timeout: 10 * time.Second}}
}

func (b *browser) post(t *testing.T, path string, body any, out any) int {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, b.baseURL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return b.do(t, req, out)
}

func (b *browser) get(t *testing.T, path string, out any) int {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, b.baseURL+path, nil)
	require.NoError(t, err)
	return b.do(t, req, out)
}

func (b *browser) do(t *testing.T, req *http.Request, out any) int {
	t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (b *browser) cookie(t *testing.T, name string) string {
	t.Helper()
	u, err := url.Parse(b.baseURL)
	require.NoError(t, err)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func register(t *testing.T, b *browser, username, email, password string) {
	t.Helper()
	var out map[string]any
	status := b.post(t, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &out)
	require.Equal(t, http.StatusOK, status, "register: %v", out)
}

// loginForGame logs the browser into the game site and returns the code
// carried in the redirect URI.
func loginForGame(t *testing.T, b *browser, identifier, password string) string {
	t.Helper()
	var out struct {
		RedirectURI string `json:"redirect_uri"`
	}
	status := b.post(t, "/auth/login", map[string]string{
		"username_or_email": identifier,
		"password":          password,
		"client_id":         gameClientID,
	}, &out)
	require.Equal(t, http.StatusOK, status)

	u, err := url.Parse(out.RedirectURI)
	require.NoError(t, err)
	code := u.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func gameSDK(baseURL string) *clientsdk.Client {
	return clientsdk.NewClient(baseURL, gameClientID, gameClientSecret)
}
