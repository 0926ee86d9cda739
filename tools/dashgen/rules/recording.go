package rules

// RecordingRuleNames lists the series produced by RecordingRules.
var RecordingRuleNames = []string{
	"cio:requests:rate5m",
	"cio:request_errors:rate5m",
	"cio:beacons:rate5m",
	"cio:beacons_failed:rate5m",
	"cio:session_starts:rate5m",
}

// RecordingRules pre-computes the rates shared by the dashboard and the
// alerts.
func RecordingRules() PrometheusRule {
	exprs := []string{
		`sum(rate(cio_requests_total[5m]))`,
		`sum(rate(cio_requests_total{status=~"5..|error"}[5m]))`,
		`sum(rate(cio_beacons_total[5m]))`,
		`sum(rate(cio_beacons_total{outcome=~"failed|dropped"}[5m]))`,
		`sum(rate(cio_session_starts_total[5m]))`,
	}
	group := RuleGroup{Name: "cio-recording"}
	for i, name := range RecordingRuleNames {
		group.Rules = append(group.Rules, Rule{Record: name, Expr: exprs[i]})
	}
	return newRule("cio-recording-rules", group)
}
