package constructorio_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/constructorio-go/pkg/constructorio"
	"github.com/donaldgifford/constructorio-go/pkg/notify"
	"github.com/donaldgifford/constructorio-go/pkg/session"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// commonTail is the common parameter suffix for the seeded identity at
// session 1 with no user, cells or segments.
var commonTail = "key=key_123&i=client-guid&s=1&c=ciogo-" + constructorio.Version +
	"&_dt=" + strconv.FormatInt(fixedNow.UnixMilli(), 10)

type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

func (r capturedRequest) jsonBody(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &m))
	return m
}

type route struct {
	status int
	body   string
}

// apiServer records every request and answers from routes keyed by escaped
// path. Unknown paths get 204, like the tracking endpoints.
type apiServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]route
	requests []capturedRequest
}

func newAPIServer(t *testing.T, routes map[string]route) *apiServer {
	t.Helper()
	s := &apiServer{routes: routes}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
	path := r.URL.EscapedPath()

	s.mu.Lock()
	s.requests = append(s.requests, capturedRequest{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.RawQuery,
		Body:   body,
	})
	rt, ok := s.routes[path]
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rt.status)
	_, _ = io.WriteString(w, rt.body) //nolint:errcheck // test server
}

func (s *apiServer) all() []capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]capturedRequest(nil), s.requests...)
}

func (s *apiServer) to(path string) []capturedRequest {
	var out []capturedRequest
	for _, r := range s.all() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// testClock is a settable clock shared with beacon workers.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingNotifier collects host notifications.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

// trackingErrors collects tracking failures.
type trackingErrors struct {
	mu   sync.Mutex
	errs map[string][]error
}

func (e *trackingErrors) handle(event string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.errs == nil {
		e.errs = make(map[string][]error)
	}
	e.errs[event] = append(e.errs[event], err)
}

func (e *trackingErrors) For(event string) []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]error(nil), e.errs[event]...)
}

func (e *trackingErrors) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, errs := range e.errs {
		n += len(errs)
	}
	return n
}

func testConfig(t *testing.T, serverURL string) constructorio.Config {
	t.Helper()
	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	return constructorio.Config{
		APIKey:        "key_123",
		ServiceURL:    u.Host,
		ServiceScheme: "http",
	}
}

// newTestClient returns a client with a seeded client id, a fixed clock and
// a single beacon worker so beacons arrive in order.
func newTestClient(
	t *testing.T,
	cfg constructorio.Config,
	opts ...constructorio.Option,
) *constructorio.Client {
	t.Helper()
	ctx := context.Background()

	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, session.State{ClientID: "client-guid"}))

	base := []constructorio.Option{
		constructorio.WithSessionStore(store),
		constructorio.WithNowFunc(func() time.Time { return fixedNow }),
		constructorio.WithBeaconWorkers(1),
	}
	c, err := constructorio.New(ctx, cfg, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) }) //nolint:errcheck // best-effort drain
	return c
}

// drain flushes queued beacons.
func drain(t *testing.T, c *constructorio.Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Close(ctx))
}

// queryKeys returns the decoded keys of a raw query in wire order.
func queryKeys(t *testing.T, raw string) []string {
	t.Helper()
	if raw == "" {
		return nil
	}
	pairs := strings.Split(raw, "&")
	keys := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		k, _, _ := strings.Cut(pair, "=")
		dk, err := url.QueryUnescape(k)
		require.NoError(t, err)
		keys = append(keys, dk)
	}
	return keys
}
