// Package remote executes requests against the search API: it renders
// endpoint paths, appends the parameters every request carries, and
// classifies responses.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/constructorio-go/internal/metrics"
	"github.com/donaldgifford/constructorio-go/internal/query"
	"github.com/donaldgifford/constructorio-go/pkg/logger"
)

const (
	// DefaultTimeout is the transport timeout of the default HTTP client.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 4 << 10
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TestCell is an A/B test assignment sent as ef-<Key>=<Value>.
type TestCell struct {
	Key   string
	Value string
}

// Identity holds the per-request identity parameters.
type Identity struct {
	ClientID  string
	SessionID int
	UserID    string
}

// Call describes one request.
type Call struct {
	Endpoint Endpoint
	PathArgs []string
	Params   query.Params
	Identity Identity
	// Body is marshaled as JSON for POST endpoints.
	Body any
}

// Client sends calls to one API host.
type Client struct {
	baseURL   string
	apiKey    string
	version   string
	testCells []TestCell
	segments  []string
	doer      Doer
	limiter   *RateLimiter
	tracing   bool
	nowFunc   func() time.Time
	log       *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithDoer overrides the default HTTP client.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithRateLimiter gates every call through r.Wait first.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *Client) {
		c.limiter = r
	}
}

// WithTracing wraps the transport with OpenTelemetry client spans.
func WithTracing() Option {
	return func(c *Client) {
		c.tracing = true
	}
}

// WithTestCells sets the A/B test cells sent with every request.
func WithTestCells(cells []TestCell) Option {
	return func(c *Client) {
		c.testCells = append([]TestCell(nil), cells...)
	}
}

// WithSegments sets the user segments sent with every request.
func WithSegments(segments []string) Option {
	return func(c *Client) {
		c.segments = append([]string(nil), segments...)
	}
}

// WithVersion sets the client version string sent as c.
func WithVersion(v string) Option {
	return func(c *Client) {
		c.version = v
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = logger.OrDiscard(l)
	}
}

// New returns a Client for baseURL (scheme://host[:port]) using apiKey.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		doer:    &http.Client{Timeout: DefaultTimeout},
		nowFunc: time.Now,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracing {
		c.doer = traced(c.doer)
	}
	return c
}

// BaseURL returns the host URL requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// CommonParams returns the parameters appended to every request, in order:
// key, i, ui (when set), s, one ef-<cell> per test cell, one us per segment,
// c, and _dt in Unix milliseconds.
func (c *Client) CommonParams(id Identity) query.Params {
	var p query.Params
	p.Add("key", c.apiKey)
	p.Add("i", id.ClientID)
	p.AddIfSet("ui", id.UserID)
	p.Add("s", strconv.Itoa(id.SessionID))
	for _, cell := range c.testCells {
		p.Add("ef-"+cell.Key, cell.Value)
	}
	p.AddAll("us", c.segments)
	p.AddIfSet("c", c.version)
	p.Add("_dt", strconv.FormatInt(c.nowFunc().UnixMilli(), 10))
	return p
}

// URL renders the full request URL of call.
func (c *Client) URL(call Call) (string, error) {
	path, err := call.Endpoint.Path(call.PathArgs...)
	if err != nil {
		return "", err
	}

	params := make(query.Params, 0, len(call.Params)+8)
	params.Append(call.Params)
	params.Append(c.CommonParams(call.Identity))

	return c.baseURL + "/" + path + "?" + params.Encode(), nil
}

// Do sends call and returns the response body of a 2xx response. Non-2xx
// responses yield a *StatusError; failures to reach the server or read the
// response yield a *TransportError. The request is never retried.
func (c *Client) Do(ctx context.Context, call Call) ([]byte, error) {
	name := call.Endpoint.Name

	u, err := c.URL(call)
	if err != nil {
		return nil, fmt.Errorf("building request url: %w", err)
	}

	var body io.Reader = http.NoBody
	if call.Body != nil {
		b, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s body: %w", name, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, call.Endpoint.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.RateLimitHitsTotal.Inc()
			}
			return nil, &TransportError{Endpoint: name, Err: fmt.Errorf("rate limit: %w", err)}
		}
		metrics.RateLimitDailyUsage.Set(float64(c.limiter.DailyCount()))
	}

	start := time.Now()
	resp, err := c.doer.Do(req)
	metrics.RequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(name, "error").Inc()
		return nil, &TransportError{Endpoint: name, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	metrics.RequestsTotal.WithLabelValues(name, strconv.Itoa(resp.StatusCode)).Inc()
	c.log.Debug("api request", "endpoint", name, "method", req.Method, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best-effort error body
		return nil, &StatusError{Endpoint: name, StatusCode: resp.StatusCode, Body: string(b)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: name, Err: fmt.Errorf("reading response body: %w", err)}
	}
	return b, nil
}
