package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mcp-plex/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		PlexURL:            "http://localhost:32400",
		PlexToken:          "test-token",
		AuthMode:           "none",
		CacheTTL:           5 * time.Minute,
		RateLimitPerSecond: 100,
		RateLimitBurst:     200,
	}
}

func TestNewServer(t *testing.T) {
	srv, err := New(testConfig())
	require.NoError(t, err)
	assert.NotNil(t, srv)
	assert.NotNil(t, srv.mcpServer)
	assert.NotNil(t, srv.plex)
	assert.NotNil(t, srv.service)
	assert.NotNil(t, srv.cache)
	assert.NotNil(t, srv.rateLimiter)
	assert.NotNil(t, srv.authProvider)
}

func TestServerHealthCheck(t *testing.T) {
	srv, err := New(testConfig())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestServerReadyCheckReportsPlexDown(t *testing.T) {
	// Nothing listens on the configured Plex address, so readiness must fail.
	srv, err := New(testConfig())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()

	srv.handleReady(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "plex_unavailable")
}

func TestStartRejectsUnknownTransport(t *testing.T) {
	srv, err := New(testConfig())
	require.NoError(t, err)

	err = srv.Start(context.Background(), "carrier-pigeon")

	assert.Error(t, err)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerSecond = 1
	cfg.RateLimitBurst = 1

	srv, err := New(cfg)
	require.NoError(t, err)

	handler := srv.rateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/test", nil)
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/test", nil)
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)

	time.Sleep(1100 * time.Millisecond)

	req3 := httptest.NewRequest(http.MethodGet, "/test", nil)
	w3 := httptest.NewRecorder()
	handler.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusOK, w3.Code)
}

func TestAuthMiddlewareSkipsHealthEndpoints(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = "api_key"
	cfg.APIKeys = []string{"secret"}

	srv, err := New(cfg)
	require.NoError(t, err)

	handler := srv.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Health probes bypass auth
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Everything else needs a key
	req = httptest.NewRequest(http.MethodGet, "/mcp", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStartStopServer(t *testing.T) {
	cfg := testConfig()
	cfg.ListenAddr = ":0"
	cfg.RequestTimeout = 30 * time.Second

	srv, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx, "http")
	}()

	time.Sleep(100 * time.Millisecond)

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not stop in time")
	}
}
