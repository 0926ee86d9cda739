package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/constructorio-go/tools/dashgen/dashboards"
	"github.com/donaldgifford/constructorio-go/tools/dashgen/rules"
	"github.com/donaldgifford/constructorio-go/tools/dashgen/validate"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "rules only", cfg: Config{OutputDir: "out", RulesEnabled: true}},
		{name: "empty output dir", cfg: Config{DashboardEnabled: true}, wantErr: true},
		{name: "nothing enabled", cfg: Config{OutputDir: "out"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBuildOverviewDashboard(t *testing.T) {
	t.Parallel()

	dash, err := dashboards.BuildOverview().Build()
	require.NoError(t, err)

	require.NotNil(t, dash.Uid)
	assert.Equal(t, dashboards.OverviewUID, *dash.Uid)
	require.NotNil(t, dash.Title)
	assert.Equal(t, "Constructor.io Client Overview", *dash.Title)

	require.NotNil(t, dash.Templating)
	require.Len(t, dash.Templating.List, 1)
	assert.Equal(t, "datasource", dash.Templating.List[0].Name)

	require.Len(t, dash.Panels, 4)
	var rows []string
	total := 0
	for _, p := range dash.Panels {
		require.NotNil(t, p.RowPanel)
		if p.RowPanel.Title != nil {
			rows = append(rows, *p.RowPanel.Title)
		}
		total += len(p.RowPanel.Panels)
	}
	assert.Equal(t, []string{"Requests", "Tracking", "Identity", "Mock Server"}, rows)
	assert.Equal(t, 15, total)

	result := validate.Dashboard(dash, knownSeries())
	assert.True(t, result.Ok(), "validation errors: %v", result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestRecordingRules(t *testing.T) {
	t.Parallel()

	cr := rules.RecordingRules()
	assert.Equal(t, "monitoring.coreos.com/v1", cr.APIVersion)
	assert.Equal(t, "PrometheusRule", cr.Kind)
	assert.Equal(t, "cio-recording-rules", cr.Metadata.Name)

	require.Len(t, cr.Spec.Groups, 1)
	group := cr.Spec.Groups[0]
	assert.Equal(t, "cio-recording", group.Name)
	require.Len(t, group.Rules, len(rules.RecordingRuleNames))
	for i, r := range group.Rules {
		assert.Equal(t, rules.RecordingRuleNames[i], r.Record)
		assert.Empty(t, r.Alert)
		assert.NotEmpty(t, r.Expr)
	}

	data, err := yaml.Marshal(cr)
	require.NoError(t, err)
	assert.Contains(t, string(data), "record: cio:requests:rate5m")
}

func TestAlertRules(t *testing.T) {
	t.Parallel()

	cr := rules.AlertRules()
	assert.Equal(t, "cio-alerts", cr.Metadata.Name)
	require.Len(t, cr.Spec.Groups, 1)

	want := []string{
		"CioHighRequestErrorRate",
		"CioDailyCapReached",
		"CioBeaconFailures",
		"CioBeaconQueueBacklog",
		"CioIdentityStoreFailing",
		"CioNotificationFailures",
	}
	group := cr.Spec.Groups[0]
	require.Len(t, group.Rules, len(want))
	for i, r := range group.Rules {
		assert.Equal(t, want[i], r.Alert)
		assert.NotEmpty(t, r.Labels["severity"], "alert %s missing severity", r.Alert)
		assert.NotEmpty(t, r.Annotations["summary"], "alert %s missing summary", r.Alert)
		assert.NotEmpty(t, r.Annotations["description"], "alert %s missing description", r.Alert)
	}
}

func TestRulesValidate(t *testing.T) {
	t.Parallel()

	for _, cr := range []rules.PrometheusRule{rules.RecordingRules(), rules.AlertRules()} {
		res := validate.Rules(cr.Exprs(), rules.RecordingRuleNames, KnownMetrics)
		assert.True(t, res.Ok(), "%s: %v", cr.Metadata.Name, res.Errors)
	}
}

func TestValidateExpr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		expr      string
		wantOk    bool
		wantWarns int
	}{
		{name: "known counter", expr: `sum(rate(cio_requests_total[5m]))`, wantOk: true},
		{name: "histogram bucket", expr: `histogram_quantile(0.9, sum by (le) (rate(cio_request_duration_seconds_bucket[5m])))`, wantOk: true},
		{name: "unknown metric", expr: `rate(cio_nope_total[5m])`},
		{name: "syntax error", expr: `sum(rate(cio_requests_total[5m])`},
		{name: "no metric name", expr: `{job="cio"}`, wantOk: true, wantWarns: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := validate.Expr("test", tt.expr, KnownMetrics)
			assert.Equal(t, tt.wantOk, res.Ok(), "errors: %v", res.Errors)
			assert.Len(t, res.Warnings, tt.wantWarns)
		})
	}
}

func TestRun_WritesArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, run(Config{OutputDir: dir, DashboardEnabled: true, RulesEnabled: true}, false, &out))

	raw, err := os.ReadFile(filepath.Join(dir, dashboardPath))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, dashboards.OverviewUID, decoded["uid"])

	for _, path := range []string{recordingPath, alertsPath} {
		data, err := os.ReadFile(filepath.Join(dir, path))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), generatedHeader), path)

		var cr rules.PrometheusRule
		require.NoError(t, yaml.Unmarshal(data, &cr))
		assert.Equal(t, "PrometheusRule", cr.Kind)
	}
	assert.Equal(t, 3, strings.Count(out.String(), "wrote "))
}

func TestRun_ValidateOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, run(Config{OutputDir: dir, RulesEnabled: true}, true, &out))

	assert.Contains(t, out.String(), "validation passed")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
