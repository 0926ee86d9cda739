package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// BeaconOutcomes charts beacons per second by outcome.
func BeaconOutcomes() *timeseries.PanelBuilder {
	return series("Beacon Outcomes", "Tracking beacons sent, failed and dropped per second", "ops").
		WithTarget(PromQuery(`sum by (outcome) (rate(cio_beacons_total[5m]))`, "{{outcome}}", "A"))
}

// BeaconsByEvent charts delivered beacons per second by event.
func BeaconsByEvent() *timeseries.PanelBuilder {
	return series("Beacons by Event", "Delivered tracking beacons per second by event", "ops").
		WithTarget(PromQuery(`sum by (event) (rate(cio_beacons_total{outcome="sent"}[5m]))`, "{{event}}", "A"))
}

// QueueDepth shows beacons waiting for a worker.
func QueueDepth() *stat.PanelBuilder {
	return single("Beacon Queue", "Beacons waiting to be sent",
		`max(cio_beacon_queue_depth)`, WarnCrit(64, 200))
}

// DroppedBeacons shows beacons dropped over the last hour.
func DroppedBeacons() *stat.PanelBuilder {
	return single("Dropped Beacons (1h)", "Beacons dropped because the queue was full or closed",
		`sum(increase(cio_beacons_dropped_total[1h]))`, WarnCrit(1, 50))
}

// SessionStarts charts new sessions per second.
func SessionStarts() *timeseries.PanelBuilder {
	return series("Session Starts", "Sessions started per second", "ops").
		WithTarget(PromQuery(`cio:session_starts:rate5m`, "sessions/s", "A")).
		Span(ThirdWidth)
}

// IdentitySaveFailures shows failed identity store writes over 24h.
func IdentitySaveFailures() *stat.PanelBuilder {
	return single("Identity Save Failures (24h)", "Failed writes to the identity store",
		`sum(increase(cio_identity_save_failures_total[24h]))`, WarnCrit(1, 10)).
		Span(ThirdWidth).
		Height(TSHeight)
}

// NotificationFailures shows failed host notifications over 24h.
func NotificationFailures() *stat.PanelBuilder {
	return single("Notification Failures (24h)", "Failed webhook or Discord notifications",
		`sum(increase(cio_notification_failures_total[24h]))`, WarnCrit(1, 5)).
		Span(ThirdWidth).
		Height(TSHeight)
}
