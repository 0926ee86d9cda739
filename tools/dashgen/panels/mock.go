package panels

import "github.com/grafana/grafana-foundation-sdk/go/timeseries"

// MockRequestRate charts mock server traffic by route.
func MockRequestRate() *timeseries.PanelBuilder {
	return series("Mock Request Rate", "Mock server requests per second by route", "reqps").
		WithTarget(PromQuery(`sum by (path) (rate(cio_mock_http_requests_total[5m]))`, "{{path}}", "A")).
		Span(ThirdWidth)
}

// MockLatency charts mock server latency percentiles.
func MockLatency() *timeseries.PanelBuilder {
	return quantiles(
		series("Mock Latency", "Mock server request duration percentiles", "s"),
		"cio_mock_http_request_duration_seconds", "le",
	).Span(ThirdWidth)
}

// MockBeacons charts beacons accepted by the mock server.
func MockBeacons() *timeseries.PanelBuilder {
	return series("Mock Beacons", "Tracking beacons accepted by the mock server by endpoint", "ops").
		WithTarget(PromQuery(`sum by (endpoint) (rate(cio_mock_beacons_total[5m]))`, "{{endpoint}}", "A")).
		Span(ThirdWidth)
}
