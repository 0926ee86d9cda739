// Package constructorio is a client for a hosted search, browse,
// autocomplete and recommendations API with behavioral event tracking.
//
// A Client keeps a persistent client id and a session id that advances
// after 30 minutes of inactivity, and attaches both to every request.
// Content calls return a Result envelope; tracking calls are queued and
// sent in the background.
package constructorio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/donaldgifford/constructorio-go/internal/metrics"
	"github.com/donaldgifford/constructorio-go/internal/remote"
	"github.com/donaldgifford/constructorio-go/pkg/logger"
	"github.com/donaldgifford/constructorio-go/pkg/notify"
	"github.com/donaldgifford/constructorio-go/pkg/session"
)

// Client is the entry point to the API. It is safe for concurrent use.
type Client struct {
	cfg        Config
	api        *remote.Client
	session    *session.Manager
	notifier   notify.Notifier
	beacons    *dispatcher
	notices    *dispatcher
	onTrackErr TrackingErrorHandler
	nowFunc    func() time.Time
	log        *slog.Logger

	mu     sync.RWMutex
	userID string
}

// New validates cfg, loads or creates the client identity, and starts the
// beacon workers. Call Close to flush pending beacons.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{
		nowFunc:   time.Now,
		workers:   defaultBeaconWorkers,
		queueSize: defaultBeaconQueueSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrDiscard(o.log)
	if o.doer == nil {
		o.doer = &http.Client{Timeout: cfg.Timeout}
	}
	if o.notifier == nil {
		o.notifier = notify.NewNoOpNotifier(log)
	}

	c := &Client{
		cfg:        cfg,
		notifier:   o.notifier,
		onTrackErr: o.onTrackErr,
		nowFunc:    o.nowFunc,
		log:        log,
	}

	sessOpts := []session.Option{
		session.WithNowFunc(o.nowFunc),
		session.WithLogger(log),
		session.OnSessionStart(c.trackSessionStart),
	}
	if o.sessionTimeout > 0 {
		sessOpts = append(sessOpts, session.WithTimeout(o.sessionTimeout))
	}
	sess, err := session.New(ctx, o.store, sessOpts...)
	if err != nil {
		return nil, fmt.Errorf("initializing session: %w", err)
	}
	c.session = sess

	cells := make([]remote.TestCell, 0, len(cfg.TestCells))
	for _, tc := range cfg.TestCells {
		cells = append(cells, remote.TestCell{Key: tc.Key, Value: tc.Value})
	}
	apiOpts := []remote.Option{
		remote.WithDoer(o.doer),
		remote.WithTestCells(cells),
		remote.WithSegments(cfg.Segments),
		remote.WithVersion(VersionString()),
		remote.WithNowFunc(o.nowFunc),
		remote.WithLogger(log),
	}
	if o.limiter != nil {
		apiOpts = append(apiOpts, remote.WithRateLimiter(o.limiter))
	}
	if o.tracing {
		apiOpts = append(apiOpts, remote.WithTracing())
	}
	c.api = remote.New(cfg.BaseURL(), cfg.APIKey, apiOpts...)

	c.beacons = newDispatcher(o.workers, o.queueSize, log)
	c.notices = newDispatcherWith(notificationAccounting, notificationWorkers, o.queueSize, log)
	return c, nil
}

// Close stops accepting tracking events and waits for queued ones to be
// sent, or for ctx to end. Pending host notifications are flushed after
// the beacons, since a sent beacon may queue one.
func (c *Client) Close(ctx context.Context) error {
	return errors.Join(c.beacons.close(ctx), c.notices.close(ctx))
}

// Config returns the effective configuration, defaults included.
func (c *Client) Config() Config {
	return c.cfg
}

// ClientID returns the persistent client GUID.
func (c *Client) ClientID() string {
	return c.session.ClientID()
}

// SessionID returns the current session id, starting a new session if the
// previous one has been idle longer than the timeout.
func (c *Client) SessionID(ctx context.Context) int {
	return c.session.SessionID(ctx)
}

// UserID returns the user id set by SetUserID.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// SetUserID sets the logged-in user id sent as ui. An empty id clears it.
func (c *Client) SetUserID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = id
}

// AppMovedToForeground refreshes the session, starting a new one if the
// app was idle past the timeout.
func (c *Client) AppMovedToForeground(ctx context.Context) {
	c.session.SessionID(ctx)
}

// identity touches the session and returns the request identity.
func (c *Client) identity(ctx context.Context) remote.Identity {
	return remote.Identity{
		ClientID:  c.session.ClientID(),
		SessionID: c.session.SessionID(ctx),
		UserID:    c.UserID(),
	}
}

// notify queues ev for the host notifier.
func (c *Client) notify(ev notify.Event) {
	ev.Time = c.nowFunc()
	//nolint:errcheck // a dropped notification is logged by the dispatcher
	_ = c.notices.enqueue(job{
		event: ev.Name,
		run: func(ctx context.Context) {
			c.deliver(ctx, ev)
		},
	})
}

func (c *Client) deliver(ctx context.Context, ev notify.Event) {
	if err := c.notifier.Notify(ctx, ev); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		c.log.Warn("host notification failed", "event", ev.Name, "err", err)
	}
}
