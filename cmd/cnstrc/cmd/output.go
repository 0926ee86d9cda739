package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/donaldgifford/constructorio-go/pkg/constructorio"
	domain "github.com/donaldgifford/constructorio-go/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printAutocomplete(w io.Writer, resp *domain.AutocompleteResponse) error {
	tw := newTabWriter(w)
	tw.writef("SECTION\tVALUE\tID\tGROUPS\n")
	for _, section := range resp.SectionNames() {
		for _, r := range resp.Section(section) {
			tw.writef("%s\t%s\t%s\t%s\n",
				section,
				truncate(r.Value, 40),
				dash(r.Data.ID),
				groupNames(r.Data.Groups),
			)
		}
	}
	tw.writef("\nResult ID:\t%s\n", dash(resp.ResultID))
	return tw.finish()
}

func printSearchData(w io.Writer, data *domain.SearchData, resultID string) error {
	tw := newTabWriter(w)
	if data == nil {
		tw.writef("No results.\n")
		return tw.finish()
	}
	if data.Redirect != nil {
		tw.writef("Redirect:\t%s\n", data.Redirect.Data.URL)
		tw.writef("Matched Terms:\t%s\n", strings.Join(data.Redirect.MatchedTerms, ", "))
		return tw.finish()
	}

	printResults(tw, data.Results)
	tw.writef("\nTotal:\t%d\n", data.TotalNumResults)
	tw.writef("Result ID:\t%s\n", dash(resultID))
	for _, f := range data.Facets {
		tw.writef("Facet:\t%s (%s, %d options)\n", f.DisplayName, f.Type, len(f.Options))
	}
	for _, opt := range data.SortOptions {
		tw.writef("Sort:\t%s %s\n", opt.SortBy, opt.SortOrder)
	}
	return tw.finish()
}

func printPages(w io.Writer, pages *constructorio.PageResult) error {
	if jsonOutput() {
		return outputJSON(w, pages)
	}
	tw := newTabWriter(w)
	if pages.Redirect != nil {
		tw.writef("Redirect:\t%s\n", pages.Redirect.Data.URL)
		return tw.finish()
	}
	printResults(tw, pages.Results)
	tw.writef("\nTotal:\t%d\n", pages.TotalNumResults)
	tw.writef("Pages:\t%d (stopped: %s)\n", pages.PagesFetched, pages.StoppedAt)
	return tw.finish()
}

func printResults(tw *tabWriter, results []domain.Result) {
	tw.writef("ID\tVALUE\tVARIATIONS\tURL\n")
	for i := range results {
		r := &results[i]
		tw.writef("%s\t%s\t%d\t%s\n",
			dash(r.Data.ID),
			truncate(r.Value, 40),
			len(r.Variations),
			dash(r.Data.URL),
		)
	}
}

func printRecommendations(w io.Writer, resp *domain.RecommendationsResponse) error {
	tw := newTabWriter(w)
	data := resp.Response
	if data == nil {
		tw.writef("No results.\n")
		return tw.finish()
	}
	if data.Pod != nil {
		tw.writef("Pod:\t%s (%s)\n\n", data.Pod.DisplayName, data.Pod.ID)
	}
	tw.writef("ID\tVALUE\tSTRATEGY\n")
	for i := range data.Results {
		r := &data.Results[i]
		strategy := "-"
		if r.Strategy != nil {
			strategy = r.Strategy.ID
		}
		tw.writef("%s\t%s\t%s\n", dash(r.Data.ID), truncate(r.Value, 40), strategy)
	}
	tw.writef("\nResult ID:\t%s\n", dash(resp.ResultID))
	return tw.finish()
}

func printIdentity(w io.Writer, info identityInfo) error {
	tw := newTabWriter(w)
	tw.writef("Client ID:\t%s\n", info.ClientID)
	tw.writef("Session:\t%d\n", info.SessionID)
	tw.writef("User ID:\t%s\n", dash(info.UserID))
	tw.writef("Backend:\t%s\n", info.Backend)
	tw.writef("API:\t%s\n", info.BaseURL)
	return tw.finish()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func groupNames(groups []domain.ResultGroup) string {
	if len(groups) == 0 {
		return "-"
	}
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.DisplayName)
	}
	return strings.Join(names, ", ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
