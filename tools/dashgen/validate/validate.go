// Package validate parses the PromQL in generated dashboards and rules and
// checks that every series they select is known.
package validate

import (
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/prometheus/prometheus/promql/parser"
)

// Result collects problems. Errors fail generation; warnings do not.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether there were no errors.
func (r Result) Ok() bool { return len(r.Errors) == 0 }

func (r *Result) merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Expr parses expr and checks its selectors against known. where prefixes
// every message.
func Expr(where, expr string, known map[string]bool) Result {
	var res Result
	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: parsing %q: %v", where, expr, err))
		return res
	}

	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok {
			return nil
		}
		if vs.Name == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: selector without a metric name in %q", where, expr))
			return nil
		}
		if !isKnown(vs.Name, known) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: unknown metric %q", where, vs.Name))
		}
		return nil
	})
	return res
}

func isKnown(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}

// Dashboard checks every Prometheus target of every panel, including the
// panels nested in rows.
func Dashboard(d dashboard.Dashboard, known map[string]bool) Result {
	var res Result
	check := func(p dashboard.Panel) {
		title := "untitled panel"
		if p.Title != nil {
			title = *p.Title
		}
		if len(p.Targets) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q has no targets", title))
		}
		for _, t := range p.Targets {
			q, ok := t.(*prometheus.Dataquery)
			if !ok {
				res.Warnings = append(res.Warnings, fmt.Sprintf("panel %q: non-Prometheus target skipped", title))
				continue
			}
			res.merge(Expr("panel "+title, q.Expr, known))
		}
	}

	for _, p := range d.Panels {
		switch {
		case p.Panel != nil:
			check(*p.Panel)
		case p.RowPanel != nil:
			for _, inner := range p.RowPanel.Panels {
				check(inner)
			}
		}
	}
	return res
}

// Rules checks rule expressions. Names of the recording rules are added to
// the known set first, so alerts may reference them.
func Rules(exprs map[string]string, recorded []string, known map[string]bool) Result {
	all := make(map[string]bool, len(known)+len(recorded))
	for k, v := range known {
		all[k] = v
	}
	for _, name := range recorded {
		all[name] = true
	}

	var res Result
	for name, expr := range exprs {
		res.merge(Expr("rule "+name, expr, all))
	}
	return res
}
