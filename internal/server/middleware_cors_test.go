package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"memoria/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devOrigin = "http://localhost:5173"

func (ts *testServer) fromOrigin(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", devOrigin)
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type")
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestLimiterResponsesKeepCORSHeaders(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 100; i++ {
		resp := ts.fromOrigin(t, http.MethodGet, "/health/live")
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i)
	}

	resp := ts.fromOrigin(t, http.MethodGet, "/api/groups")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, devOrigin, resp.Header.Get("Access-Control-Allow-Origin"))

	var body models.ErrorResponse
	require.NoError(t, decodeJSON(resp, &body))
	assert.NotEmpty(t, body.Error)

	// Preflights are never counted or limited.
	preflight := ts.fromOrigin(t, http.MethodOptions, "/api/groups/1/like")
	assert.Equal(t, http.StatusNoContent, preflight.StatusCode)
	assert.Equal(t, devOrigin, preflight.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, preflight.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestUnknownOriginGetsNoCORSHeaders(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
