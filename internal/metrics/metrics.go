// Package metrics defines Prometheus metrics for the constructorio client
// and its mock server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cio"

// Outcome label values for BeaconsTotal.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

// API client metrics.
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total API requests by endpoint and status code (\"error\" for transport failures).",
	}, []string{"endpoint", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of API requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	RateLimitHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_hits_total",
		Help:      "Total number of requests rejected by the daily request cap.",
	})

	RateLimitDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rate_limit_daily_usage",
		Help:      "Requests made within the current 24-hour rate limit window.",
	})
)

// Tracking metrics.
var (
	BeaconsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "beacons_total",
		Help:      "Total tracking beacons by event and outcome.",
	}, []string{"event", "outcome"})

	BeaconsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "beacons_dropped_total",
		Help:      "Total tracking beacons dropped because the queue was full or closed.",
	})

	BeaconQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "beacon_queue_depth",
		Help:      "Beacons waiting to be sent.",
	})
)

// Session metrics.
var (
	SessionStartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_starts_total",
		Help:      "Total number of sessions started, including the first.",
	})

	IdentitySaveFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_save_failures_total",
		Help:      "Total number of failed identity store writes.",
	})
)

// Notification metrics.
var (
	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of host notification failures.",
	})

	NotificationsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Total host notifications dropped because their queue was full or closed.",
	})
)

// Mock server metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "mock",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of mock server HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mock",
		Name:      "http_requests_total",
		Help:      "Total number of mock server HTTP requests.",
	}, []string{"method", "path", "status"})
)

// MockBeaconsTotal counts tracking beacons accepted by the mock server.
var MockBeaconsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "mock",
	Name:      "beacons_total",
	Help:      "Total tracking beacons accepted by the mock server by endpoint.",
}, []string{"endpoint"})
