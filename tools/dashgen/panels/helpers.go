// Package panels builds the Grafana panels of the cio overview dashboard.
package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/cog"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// Grid sizes on Grafana's 24 column layout.
const (
	StatWidth  = 6
	StatHeight = 4

	TSWidth  = 12
	TSHeight = 8

	ThirdWidth = 8
)

// DSRef points panels at the ${datasource} variable.
func DSRef() dashboard.DataSourceRef {
	return dashboard.DataSourceRef{
		Type: cog.ToPtr("prometheus"),
		Uid:  cog.ToPtr("${datasource}"),
	}
}

// PromQuery builds a Prometheus target.
func PromQuery(expr, legendFormat, refID string) *prometheus.DataqueryBuilder {
	return prometheus.NewDataqueryBuilder().
		Expr(expr).
		LegendFormat(legendFormat).
		RefId(refID)
}

// Steps returns absolute thresholds starting at base and switching to each
// following color at the paired value.
func Steps(base string, next ...Step) cog.Builder[dashboard.ThresholdsConfig] {
	steps := []dashboard.Threshold{{Color: base}}
	for _, s := range next {
		steps = append(steps, dashboard.Threshold{Value: cog.ToPtr(s.At), Color: s.Color})
	}
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps(steps)
}

// Step is one threshold boundary.
type Step struct {
	At    float64
	Color string
}

// WarnCrit is the common green, yellow, red ladder.
func WarnCrit(warn, crit float64) cog.Builder[dashboard.ThresholdsConfig] {
	return Steps("green", Step{At: warn, Color: "yellow"}, Step{At: crit, Color: "red"})
}

// series returns a line chart with the shared styling applied. Callers add
// targets and may override the width.
func series(title, description, unit string) *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		Unit(unit).
		FillOpacity(10).
		LineWidth(2).
		Legend(common.NewVizLegendOptionsBuilder().
			DisplayMode(common.LegendDisplayModeTable).
			Placement(common.LegendPlacementBottom).
			Calcs([]string{"mean", "max"})).
		Tooltip(common.NewVizTooltipOptionsBuilder().
			Mode(common.TooltipDisplayModeMulti).
			Sort(common.SortOrderDescending)).
		Thresholds(Steps("green")).
		ColorScheme(dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdPaletteClassic)).
		DrawStyle(common.GraphDrawStyleLine)
}

// single returns a stat panel colored by its thresholds.
func single(title, description, expr string, thresholds cog.Builder[dashboard.ThresholdsConfig]) *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(expr, "", "A")).
		Thresholds(thresholds).
		ColorScheme(dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdThresholds)).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea).
		TextMode(common.BigValueTextModeValue)
}

// quantiles adds p50, p95 and p99 targets for a histogram.
func quantiles(p *timeseries.PanelBuilder, histogram, by string) *timeseries.PanelBuilder {
	for i, q := range []string{"0.50", "0.95", "0.99"} {
		expr := "histogram_quantile(" + q + ", sum by (" + by + ") (rate(" + histogram + "_bucket[5m])))"
		p = p.WithTarget(PromQuery(expr, "p"+q[2:], string(rune('A'+i))))
	}
	return p
}
