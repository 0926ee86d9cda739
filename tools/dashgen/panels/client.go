package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RequestRate charts SDK requests per second by endpoint.
func RequestRate() *timeseries.PanelBuilder {
	return series("Request Rate", "SDK API requests per second by endpoint", "reqps").
		WithTarget(PromQuery(`sum by (endpoint) (rate(cio_requests_total[5m]))`, "{{endpoint}}", "A"))
}

// RequestLatency charts SDK request latency percentiles.
func RequestLatency() *timeseries.PanelBuilder {
	return quantiles(
		series("Request Latency", "SDK API request duration percentiles", "s"),
		"cio_request_duration_seconds", "le",
	)
}

// RequestErrorRate charts failed requests as a share of all requests.
// Transport failures carry status="error".
func RequestErrorRate() *timeseries.PanelBuilder {
	return series("Error Rate %", "Requests answered with 5xx or failed in transport", "percent").
		WithTarget(PromQuery(`cio:request_errors:rate5m / cio:requests:rate5m * 100`, "error %", "A")).
		Thresholds(WarnCrit(1, 5))
}

// DailyUsage shows requests made in the current 24h rate limit window.
func DailyUsage() *stat.PanelBuilder {
	return single("Daily Requests", "Requests counted against the daily cap",
		`max(cio_rate_limit_daily_usage)`, Steps("green"))
}

// RateLimitHits shows requests refused by the daily cap over 24h.
func RateLimitHits() *stat.PanelBuilder {
	return single("Daily Cap Hits (24h)", "Requests refused because the daily cap was reached",
		`sum(increase(cio_rate_limit_hits_total[24h]))`, WarnCrit(1, 10))
}
