package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/constructorio-go/pkg/constructorio"
)

// listingFlags are the options shared by search and browse.
type listingFlags struct {
	filters         []string
	page            int
	perPage         int
	sortBy          string
	sortOrder       string
	section         string
	hiddenFields    []string
	hiddenFacets    []string
	groupsSortBy    string
	groupsSortOrder string
	all             bool
	maxPages        int
}

func (f *listingFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringArrayVar(&f.filters, "filter", nil, "facet filter as Name=Value (repeatable; group_id=ID selects a group)")
	fl.IntVar(&f.page, "page", 0, "result page (1-based)")
	fl.IntVar(&f.perPage, "per-page", 0, "results per page")
	fl.StringVar(&f.sortBy, "sort-by", "", "sort field")
	fl.StringVar(&f.sortOrder, "sort-order", "", "sort order (ascending, descending)")
	fl.StringVar(&f.section, "section", "", "index section")
	fl.StringSliceVar(&f.hiddenFields, "hidden-field", nil, "hidden field to include")
	fl.StringSliceVar(&f.hiddenFacets, "hidden-facet", nil, "hidden facet to include")
	fl.StringVar(&f.groupsSortBy, "groups-sort-by", "", "group sort field (value, relevance)")
	fl.StringVar(&f.groupsSortOrder, "groups-sort-order", "", "group sort order (ascending, descending)")
	fl.BoolVar(&f.all, "all", false, "fetch consecutive pages until exhausted")
	fl.IntVar(&f.maxPages, "max-pages", 0, "page cap for --all")
}

func (f *listingFlags) pageOptions() []constructorio.PageOption {
	return []constructorio.PageOption{constructorio.WithMaxPages(f.maxPages)}
}

func autocompleteCmd() *cobra.Command {
	var (
		filters      []string
		numResults   []string
		hiddenFields []string
	)

	cmd := &cobra.Command{
		Use:   "autocomplete <term>",
		Short: "Fetch autocomplete suggestions and products",
		Example: `  cnstrc autocomplete "pea"
  cnstrc autocomplete "pea" --num-results "Search Suggestions=5" --num-results Products=3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseFilters(filters)
			if err != nil {
				return err
			}
			counts, err := parseCounts(numResults)
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, a *app) error {
				res := a.client.Autocomplete(ctx, constructorio.AutocompleteRequest{
					Term:                 args[0],
					Filters:              fs,
					NumResultsPerSection: counts,
					HiddenFields:         hiddenFields,
				})
				v, err := res.Get()
				if err != nil {
					return fmt.Errorf("autocomplete: %w", err)
				}
				if jsonOutput() {
					return outputJSON(cmd.OutOrStdout(), v)
				}
				return printAutocomplete(cmd.OutOrStdout(), v)
			})
		},
	}
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "facet filter as Name=Value (repeatable)")
	cmd.Flags().StringArrayVar(&numResults, "num-results", nil, "results for a section as Section=N (repeatable)")
	cmd.Flags().StringSliceVar(&hiddenFields, "hidden-field", nil, "hidden field to include")

	return cmd
}

func searchCmd() *cobra.Command {
	var lf listingFlags

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search the index",
		Example: `  cnstrc search "peanut butter" --filter Brand=Jif --sort-by price --sort-order ascending
  cnstrc search corn --all --per-page 50 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseFilters(lf.filters)
			if err != nil {
				return err
			}
			req := constructorio.SearchRequest{
				Term:            args[0],
				Filters:         fs,
				Page:            lf.page,
				PerPage:         lf.perPage,
				SortBy:          lf.sortBy,
				SortOrder:       constructorio.SortOrder(lf.sortOrder),
				Section:         lf.section,
				HiddenFields:    lf.hiddenFields,
				HiddenFacets:    lf.hiddenFacets,
				GroupsSortBy:    lf.groupsSortBy,
				GroupsSortOrder: constructorio.SortOrder(lf.groupsSortOrder),
			}
			return withClient(cmd, func(ctx context.Context, a *app) error {
				if lf.all {
					pages, err := a.client.SearchPages(ctx, req, lf.pageOptions()...)
					if err != nil {
						return fmt.Errorf("search: %w", err)
					}
					return printPages(cmd.OutOrStdout(), pages)
				}
				v, err := a.client.Search(ctx, req).Get()
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
				if jsonOutput() {
					return outputJSON(cmd.OutOrStdout(), v)
				}
				return printSearchData(cmd.OutOrStdout(), v.Response, v.ResultID)
			})
		},
	}
	lf.register(cmd)

	return cmd
}

func browseCmd() *cobra.Command {
	var lf listingFlags

	cmd := &cobra.Command{
		Use:   "browse <filter-name> <filter-value>",
		Short: "List the items of a browse page",
		Example: `  cnstrc browse group_id 431
  cnstrc browse Brand "Del Monte" --page 2 --per-page 24`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseFilters(lf.filters)
			if err != nil {
				return err
			}
			req := constructorio.BrowseRequest{
				FilterName:      args[0],
				FilterValue:     args[1],
				Filters:         fs,
				Page:            lf.page,
				PerPage:         lf.perPage,
				SortBy:          lf.sortBy,
				SortOrder:       constructorio.SortOrder(lf.sortOrder),
				Section:         lf.section,
				HiddenFields:    lf.hiddenFields,
				HiddenFacets:    lf.hiddenFacets,
				GroupsSortBy:    lf.groupsSortBy,
				GroupsSortOrder: constructorio.SortOrder(lf.groupsSortOrder),
			}
			return withClient(cmd, func(ctx context.Context, a *app) error {
				if lf.all {
					pages, err := a.client.BrowsePages(ctx, req, lf.pageOptions()...)
					if err != nil {
						return fmt.Errorf("browse: %w", err)
					}
					return printPages(cmd.OutOrStdout(), pages)
				}
				v, err := a.client.Browse(ctx, req).Get()
				if err != nil {
					return fmt.Errorf("browse: %w", err)
				}
				if jsonOutput() {
					return outputJSON(cmd.OutOrStdout(), v)
				}
				return printSearchData(cmd.OutOrStdout(), v.Response, v.ResultID)
			})
		},
	}
	lf.register(cmd)

	return cmd
}

func recommendationsCmd() *cobra.Command {
	var (
		filters    []string
		itemIDs    []string
		term       string
		numResults int
		section    string
	)

	cmd := &cobra.Command{
		Use:     "recommendations <pod-id>",
		Aliases: []string{"recs"},
		Short:   "Fetch the items of a recommendation pod",
		Example: `  cnstrc recommendations item_page --item-id 123 --num-results 6`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseFilters(filters)
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, a *app) error {
				v, err := a.client.Recommendations(ctx, constructorio.RecommendationsRequest{
					PodID:      args[0],
					Filters:    fs,
					ItemIDs:    itemIDs,
					Term:       term,
					NumResults: numResults,
					Section:    section,
				}).Get()
				if err != nil {
					return fmt.Errorf("recommendations: %w", err)
				}
				if jsonOutput() {
					return outputJSON(cmd.OutOrStdout(), v)
				}
				return printRecommendations(cmd.OutOrStdout(), v)
			})
		},
	}
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "facet filter as Name=Value (repeatable)")
	cmd.Flags().StringSliceVar(&itemIDs, "item-id", nil, "seed item id")
	cmd.Flags().StringVar(&term, "term", "", "seed search term")
	cmd.Flags().IntVar(&numResults, "num-results", 0, "number of results")
	cmd.Flags().StringVar(&section, "section", "", "index section")

	return cmd
}

// parseFilters turns Name=Value flags into Filters, merging repeated names
// in first-seen order.
func parseFilters(raw []string) (constructorio.Filters, error) {
	var out constructorio.Filters
	index := make(map[string]int)
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("invalid filter %q: want Name=Value", r)
		}
		if i, seen := index[name]; seen {
			out[i].Values = append(out[i].Values, value)
			continue
		}
		index[name] = len(out)
		out = append(out, constructorio.Filter{Name: name, Values: []string{value}})
	}
	return out, nil
}

// parseCounts turns Section=N flags into a per-section result count map.
func parseCounts(raw []string) (map[string]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]int, len(raw))
	for _, r := range raw {
		section, n, ok := strings.Cut(r, "=")
		if !ok || section == "" {
			return nil, fmt.Errorf("invalid result count %q: want Section=N", r)
		}
		count, err := strconv.Atoi(n)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("invalid result count %q: want a non-negative number", r)
		}
		out[section] = count
	}
	return out, nil
}
