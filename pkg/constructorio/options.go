package constructorio

import (
	"log/slog"
	"time"

	"github.com/donaldgifford/constructorio-go/internal/remote"
	"github.com/donaldgifford/constructorio-go/pkg/notify"
	"github.com/donaldgifford/constructorio-go/pkg/session"
)

const (
	defaultBeaconWorkers   = 2
	defaultBeaconQueueSize = 256
	notificationWorkers    = 1
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer = remote.Doer

// RateLimiter caps the request rate and daily request count.
type RateLimiter = remote.RateLimiter

// NewRateLimiter returns a limiter allowing perSecond requests with the
// given burst and at most maxDaily requests per rolling day (0 = no cap).
func NewRateLimiter(perSecond float64, burst int, maxDaily int64) *RateLimiter {
	return remote.NewRateLimiter(perSecond, burst, maxDaily)
}

// TrackingErrorHandler receives tracking failures, which are otherwise only
// logged.
type TrackingErrorHandler func(event string, err error)

type options struct {
	doer           Doer
	store          session.Store
	log            *slog.Logger
	notifier       notify.Notifier
	limiter        *RateLimiter
	tracing        bool
	nowFunc        func() time.Time
	onTrackErr     TrackingErrorHandler
	workers        int
	queueSize      int
	sessionTimeout time.Duration
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets the transport used for every request.
func WithHTTPClient(d Doer) Option {
	return func(o *options) {
		o.doer = d
	}
}

// WithSessionStore sets where the client id and session state persist.
// The default keeps them in memory.
func WithSessionStore(s session.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithNotifier sets the host notifier for query_sent and
// suggestions_retrieved events.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithRateLimiter gates every request through r.
func WithRateLimiter(r *RateLimiter) Option {
	return func(o *options) {
		o.limiter = r
	}
}

// WithTracing records an OpenTelemetry client span per request using the
// global tracer provider.
func WithTracing() Option {
	return func(o *options) {
		o.tracing = true
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(o *options) {
		o.nowFunc = f
	}
}

// WithTrackingErrorHandler registers h to receive tracking failures.
func WithTrackingErrorHandler(h TrackingErrorHandler) Option {
	return func(o *options) {
		o.onTrackErr = h
	}
}

// WithBeaconWorkers sets how many goroutines send tracking beacons.
func WithBeaconWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithBeaconQueueSize sets how many beacons may wait to be sent before new
// ones are dropped.
func WithBeaconQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithSessionTimeout overrides the 30 minute idle timeout.
func WithSessionTimeout(d time.Duration) Option {
	return func(o *options) {
		o.sessionTimeout = d
	}
}
