package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/constructorio-go/pkg/constructorio"
)

func TestParseFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     []string
		want    constructorio.Filters
		wantErr bool
	}{
		{name: "none", raw: nil, want: nil},
		{
			name: "merges repeated names in first-seen order",
			raw:  []string{"Brand=Jif", "group_id=431", "Brand=Skippy"},
			want: constructorio.Filters{
				{Name: "Brand", Values: []string{"Jif", "Skippy"}},
				{Name: "group_id", Values: []string{"431"}},
			},
		},
		{name: "value with equals", raw: []string{"Size=a=b"}, want: constructorio.Filters{{Name: "Size", Values: []string{"a=b"}}}},
		{name: "missing value", raw: []string{"Brand="}, wantErr: true},
		{name: "missing separator", raw: []string{"Brand"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseFilters(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCounts(t *testing.T) {
	t.Parallel()

	got, err := parseCounts([]string{"Search Suggestions=5", "Products=0"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Search Suggestions": 5, "Products": 0}, got)

	got, err = parseCounts(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseCounts([]string{"Products=-1"})
	require.Error(t, err)
	_, err = parseCounts([]string{"=3"})
	require.Error(t, err)
}

type cliServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies map[string][]byte
}

func newCLIServer(t *testing.T) *cliServer {
	t.Helper()
	s := &cliServer{bodies: make(map[string][]byte)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
		s.mu.Lock()
		s.bodies[r.Method+" "+r.URL.EscapedPath()] = body
		s.mu.Unlock()

		if r.URL.Path == "/search/corn" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"response":{"results":[{"value":"Sweet Corn","data":{"id":"corn-1"}}],"total_num_results":1},"result_id":"r-1"}`) //nolint:errcheck // test server
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *cliServer) body(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bodies[key]
	return b, ok
}

func writeConfig(t *testing.T, serverURL, identityYAML string) string {
	t.Helper()
	u, err := url.Parse(serverURL)
	require.NoError(t, err)

	yaml := fmt.Sprintf(`
client:
  api_key: key_123
  service_url: %s
  service_scheme: http
%s
logging:
  level: error
`, u.Host, identityYAML)

	path := filepath.Join(t.TempDir(), "cnstrc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

// execute runs the root command. The command tree is global, so callers
// must not run in parallel.
func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestSearchCommand_JSON(t *testing.T) {
	srv := newCLIServer(t)
	cfg := writeConfig(t, srv.URL, "identity:\n  backend: memory")

	out := execute(t, "--config", cfg, "--output", "json", "search", "corn")

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "r-1", resp["result_id"])
	assert.Contains(t, out, "Sweet Corn")
}

func TestSearchCommand_Table(t *testing.T) {
	srv := newCLIServer(t)
	cfg := writeConfig(t, srv.URL, "identity:\n  backend: memory")

	out := execute(t, "--config", cfg, "--output", "table", "search", "corn")
	assert.Contains(t, out, "corn-1")
	assert.Contains(t, out, "Sweet Corn")
	assert.Contains(t, out, "Result ID:")
}

func TestTrackConversionCommand(t *testing.T) {
	srv := newCLIServer(t)
	cfg := writeConfig(t, srv.URL, "identity:\n  backend: memory")

	out := execute(t, "--config", cfg, "--output", "table",
		"track", "conversion", "corn-1", "--term", "corn", "--revenue", "4.5")
	assert.Contains(t, out, "queued conversion")

	raw, ok := srv.body("POST /v2/behavioral_action/conversion")
	require.True(t, ok, "conversion beacon not received")
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "4.50", body["revenue"])
	assert.Equal(t, "corn", body["search_term"])

	_, ok = srv.body("GET /behavior")
	assert.True(t, ok, "session_start beacon not received")
}

func TestIdentityCommand_FileBackendIsStable(t *testing.T) {
	srv := newCLIServer(t)
	idPath := filepath.Join(t.TempDir(), "identity.json")
	cfg := writeConfig(t, srv.URL, fmt.Sprintf("identity:\n  backend: file\n  file:\n    path: %s", idPath))

	var first, second identityInfo
	require.NoError(t, json.Unmarshal([]byte(execute(t, "--config", cfg, "--output", "json", "identity")), &first))
	require.NoError(t, json.Unmarshal([]byte(execute(t, "--config", cfg, "--output", "json", "identity")), &second))

	assert.NotEmpty(t, first.ClientID)
	assert.Equal(t, first.ClientID, second.ClientID)
	assert.Equal(t, 1, second.SessionID)
	assert.Equal(t, "file", second.Backend)
	assert.FileExists(t, idPath)
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Equal(t, "cnstrc ciogo-"+constructorio.Version+"\n", out)
}
