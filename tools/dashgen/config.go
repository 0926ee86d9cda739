package main

import "errors"

// KnownMetrics lists the raw series dashboards and rules may reference: the
// cio_* metrics exported by the SDK and the mock server plus a few standard
// Prometheus series. Histogram suffixes (_bucket, _sum, _count) resolve to
// their base name. Recording rule names are added by knownSeries.
var KnownMetrics = map[string]bool{
	// SDK request metrics.
	"cio_requests_total":           true,
	"cio_request_duration_seconds": true,
	"cio_rate_limit_hits_total":    true,
	"cio_rate_limit_daily_usage":   true,

	// Tracking metrics.
	"cio_beacons_total":         true,
	"cio_beacons_dropped_total": true,
	"cio_beacon_queue_depth":    true,

	// Identity metrics.
	"cio_session_starts_total":         true,
	"cio_identity_save_failures_total": true,

	"cio_notification_failures_total": true,
	"cio_notifications_dropped_total": true,

	// Mock server metrics.
	"cio_mock_http_requests_total":           true,
	"cio_mock_http_request_duration_seconds": true,
	"cio_mock_beacons_total":                 true,

	"up":                         true,
	"process_start_time_seconds": true,
}

// Config selects the artifacts to generate and where to write them.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig writes everything into ../../deploy, relative to
// tools/dashgen.
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("nothing to generate: enable the dashboard or the rules")
	}
	return nil
}
