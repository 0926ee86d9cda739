package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/constructorio-go/pkg/logger"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("client:\n  api_key: key_123\nmock_server:\n  port: 9000\n  api_key: from-file\n"), 0o600))

	tests := []struct {
		name      string
		args      []string
		wantAddr  string
		wantKey   string
		wantLevel string
	}{
		{
			name:      "defaults",
			wantAddr:  "127.0.0.1:8089",
			wantLevel: "info",
		},
		{
			name:      "config file",
			args:      []string{"-config", cfgPath},
			wantAddr:  "127.0.0.1:9000",
			wantKey:   "from-file",
			wantLevel: "info",
		},
		{
			name:      "flags override config",
			args:      []string{"-config", cfgPath, "-host", "0.0.0.0", "-port", "9100", "-api-key", "k", "-log-level", "debug"},
			wantAddr:  "0.0.0.0:9100",
			wantKey:   "k",
			wantLevel: "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := parseFlags(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, cfg.MockServer.Addr())
			assert.Equal(t, tt.wantKey, cfg.MockServer.APIKey)
			assert.Equal(t, tt.wantLevel, cfg.Logging.Level)
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	t.Parallel()

	_, err := parseFlags([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")

	_, err = parseFlags([]string{"-port", "not-a-port"})
	require.Error(t, err)
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	cfg, err := parseFlags([]string{"-api-key", "key_123"})
	require.NoError(t, err)

	var logs bytes.Buffer
	e, err := newServer(cfg, logger.NewWithWriter(&logs, "info", "text"))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "products=9")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search/corn?key=key_123", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search/corn?key=other", http.NoBody))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewServer_BadFixtures(t *testing.T) {
	t.Parallel()

	cfg, err := parseFlags([]string{"-fixtures", t.TempDir()})
	require.NoError(t, err)

	_, err = newServer(cfg, logger.Discard())
	require.Error(t, err)
}
