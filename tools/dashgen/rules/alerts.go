package rules

func alert(name, expr, forDur, severity, summary, description string) Rule {
	return Rule{
		Alert:       name,
		Expr:        expr,
		For:         forDur,
		Labels:      map[string]string{"severity": severity},
		Annotations: map[string]string{"summary": summary, "description": description},
	}
}

// AlertRules covers request errors, the daily cap, beacon delivery and the
// identity store.
func AlertRules() PrometheusRule {
	return newRule("cio-alerts", RuleGroup{
		Name: "cio-alerts",
		Rules: []Rule{
			alert("CioHighRequestErrorRate",
				`cio:request_errors:rate5m / cio:requests:rate5m > 0.05`, "5m", "warning",
				"Search API requests are failing",
				"More than 5% of SDK requests returned 5xx or failed in transport over the last 5 minutes."),
			alert("CioDailyCapReached",
				`increase(cio_rate_limit_hits_total[5m]) > 0`, "0m", "critical",
				"Daily request cap reached",
				"The client refused requests because the configured daily cap is exhausted."),
			alert("CioBeaconFailures",
				`cio:beacons_failed:rate5m / cio:beacons:rate5m > 0.1`, "10m", "warning",
				"Tracking beacons are not being delivered",
				"More than 10% of tracking beacons failed or were dropped over the last 10 minutes."),
			alert("CioBeaconQueueBacklog",
				`max(cio_beacon_queue_depth) > 200`, "5m", "warning",
				"Beacon queue is backing up",
				"More than 200 beacons have been waiting for a worker for 5 minutes."),
			alert("CioIdentityStoreFailing",
				`increase(cio_identity_save_failures_total[10m]) > 0`, "1m", "warning",
				"Identity store writes are failing",
				"Client ids and session numbers are not being persisted and will reset on restart."),
			alert("CioNotificationFailures",
				`increase(cio_notification_failures_total[5m]) > 0`, "1m", "warning",
				"Host notifications are failing",
				"One or more webhook or Discord notifications could not be delivered."),
		},
	})
}
