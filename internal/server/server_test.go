package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ReaderBridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.RateLimit.Enabled = false
	cfg.Storage.AssetsDir = t.TempDir()
	cfg.Storage.DocumentDir = t.TempDir()
	cfg.Storage.CacheDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Storage.AssetsDir, "epub.min.js"), []byte("/* epub */"), 0o644))
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		assert.NoError(t, srv.Close())
	})
	return ts
}

func TestSessionConfig(t *testing.T) {
	cfg := config.Default()
	sc := sessionConfig(cfg)

	assert.Equal(t, []string{"/assets/jszip.min.js", "/assets/epub.min.js", "bridge.js"}, sc.ScriptURIs)
	assert.Equal(t, types.FlowPaginated, sc.Defaults.Flow)
	assert.Equal(t, 1600, sc.Defaults.CharactersPerLocation)
	assert.True(t, sc.Defaults.EnableSelection)
	assert.Equal(t, cfg.Server.MaxSessions, sc.MaxSessions)
	assert.Equal(t, cfg.Reader.MaxEventSize, sc.MaxEventSize)
}

func TestServerRoutes(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/assets/epub.min.js")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerOpenReader(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	book := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("epub"), 30))
	body, err := json.Marshal(types.OpenRequest{Src: book})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/readers", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	var view struct {
		ID       string `json:"id"`
		Document string `json:"document"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(ts.URL + view.Document)
	require.NoError(t, err)
	var html bytes.Buffer
	_, err = html.ReadFrom(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, html.String(), "/assets/epub.min.js")
	assert.Contains(t, html.String(), "bridge.js")

	resp, err = http.Get(ts.URL + "/readers/" + view.ID + "/bridge.js")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
}

func TestNewServerRejectsBadAllowList(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.AllowedPaths = []string{"/docs/["}

	_, err := NewServer(cfg)
	assert.Error(t, err)
}
