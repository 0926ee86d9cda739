// Package dashboards assembles Grafana dashboards from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/constructorio-go/tools/dashgen/panels"
)

// OverviewUID is the stable UID of the overview dashboard.
const OverviewUID = "cio-overview"

// BuildOverview builds the dashboard covering SDK requests, the daily cap,
// tracking, identity and the mock server.
func BuildOverview() *dashboard.DashboardBuilder {
	return dashboard.NewDashboardBuilder("Constructor.io Client Overview").
		Uid(OverviewUID).
		Tags([]string{"cio", "constructorio-go"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(dashboard.NewDatasourceVariableBuilder("datasource").
			Label("Datasource").
			Type("prometheus")).
		WithRow(dashboard.NewRowBuilder("Requests").
			WithPanel(panels.RequestRate()).
			WithPanel(panels.RequestLatency()).
			WithPanel(panels.RequestErrorRate()).
			WithPanel(panels.DailyUsage()).
			WithPanel(panels.RateLimitHits())).
		WithRow(dashboard.NewRowBuilder("Tracking").
			WithPanel(panels.BeaconOutcomes()).
			WithPanel(panels.BeaconsByEvent()).
			WithPanel(panels.QueueDepth()).
			WithPanel(panels.DroppedBeacons())).
		WithRow(dashboard.NewRowBuilder("Identity").
			WithPanel(panels.SessionStarts()).
			WithPanel(panels.IdentitySaveFailures()).
			WithPanel(panels.NotificationFailures())).
		WithRow(dashboard.NewRowBuilder("Mock Server").
			WithPanel(panels.MockRequestRate()).
			WithPanel(panels.MockLatency()).
			WithPanel(panels.MockBeacons()))
}
