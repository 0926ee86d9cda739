package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/constructorio-go/pkg/constructorio"
	domain "github.com/donaldgifford/constructorio-go/pkg/types"
)

func trackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Send behavioral tracking events",
		Long: "Sends one behavioral event. Events are queued and flushed before\n" +
			"the command exits; failures are reported on stderr.",
	}

	cmd.AddCommand(trackFocusCmd())
	cmd.AddCommand(trackSelectCmd())
	cmd.AddCommand(trackSubmitCmd())
	cmd.AddCommand(trackResultsLoadedCmd())
	cmd.AddCommand(trackClickCmd())
	cmd.AddCommand(trackConversionCmd())
	cmd.AddCommand(trackPurchaseCmd())
	cmd.AddCommand(trackBrowseLoadedCmd())
	cmd.AddCommand(trackBrowseClickCmd())
	cmd.AddCommand(trackRecClickCmd())
	cmd.AddCommand(trackRecViewCmd())

	return cmd
}

// runTrack sends one event and reports it.
func runTrack(cmd *cobra.Command, event string, send func(ctx context.Context, c *constructorio.Client)) error {
	return withClient(cmd, func(ctx context.Context, a *app) error {
		send(ctx, a.client)
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "queued %s (client %s, session %d)\n",
			event, a.client.ClientID(), a.client.SessionID(ctx))
		return err
	})
}

// optionalInt returns a pointer to v when the flag was set.
func optionalInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

// optionalFloat returns a pointer to v when the flag was set.
func optionalFloat(cmd *cobra.Command, name string, v float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func trackFocusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "focus [term]",
		Short: "Search input focused",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := ""
			if len(args) == 1 {
				term = args[0]
			}
			return runTrack(cmd, constructorio.EventInputFocus, func(ctx context.Context, c *constructorio.Client) {
				c.TrackInputFocus(ctx, term)
			})
		},
	}
}

func groupFlag(groupID, groupName string) *constructorio.SearchGroup {
	if groupID == "" && groupName == "" {
		return nil
	}
	return &constructorio.SearchGroup{GroupID: groupID, DisplayName: groupName}
}

func trackSelectCmd() *cobra.Command {
	var ev constructorio.AutocompleteSelect
	var groupID, groupName string

	cmd := &cobra.Command{
		Use:     "select <term>",
		Short:   "Autocomplete suggestion selected",
		Example: `  cnstrc track select "peanut butter" --original-query pea --group-id 431 --group-name Spreads`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.SearchTerm = args[0]
			ev.Group = groupFlag(groupID, groupName)
			return runTrack(cmd, constructorio.EventAutocompleteSelect, func(ctx context.Context, c *constructorio.Client) {
				c.TrackAutocompleteSelect(ctx, ev)
			})
		},
	}
	cmd.Flags().StringVar(&ev.OriginalQuery, "original-query", "", "text typed before selecting")
	cmd.Flags().StringVar(&ev.SectionName, "section", "", "autocomplete section (default \"Search Suggestions\")")
	cmd.Flags().StringVar(&ev.ResultID, "result-id", "", "result id of the autocomplete response")
	cmd.Flags().StringVar(&groupID, "group-id", "", "group id of the suggestion")
	cmd.Flags().StringVar(&groupName, "group-name", "", "group display name of the suggestion")

	return cmd
}

func trackSubmitCmd() *cobra.Command {
	var ev constructorio.SearchSubmit
	var groupID, groupName string

	cmd := &cobra.Command{
		Use:   "submit <term>",
		Short: "Search submitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.SearchTerm = args[0]
			ev.Group = groupFlag(groupID, groupName)
			return runTrack(cmd, constructorio.EventSearchSubmit, func(ctx context.Context, c *constructorio.Client) {
				c.TrackSearchSubmit(ctx, ev)
			})
		},
	}
	cmd.Flags().StringVar(&ev.OriginalQuery, "original-query", "", "text typed before submitting")
	cmd.Flags().StringVar(&groupID, "group-id", "", "group id the search was scoped to")
	cmd.Flags().StringVar(&groupName, "group-name", "", "group display name")

	return cmd
}

func trackResultsLoadedCmd() *cobra.Command {
	var ev constructorio.SearchResultsLoaded

	cmd := &cobra.Command{
		Use:   "results-loaded <term>",
		Short: "Search results rendered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.Term = args[0]
			return runTrack(cmd, constructorio.EventSearchResultsLoaded, func(ctx context.Context, c *constructorio.Client) {
				c.TrackSearchResultsLoaded(ctx, ev)
			})
		},
	}
	cmd.Flags().IntVar(&ev.ResultCount, "count", 0, "number of results shown")
	cmd.Flags().StringSliceVar(&ev.CustomerIDs, "item-id", nil, "ids of the items shown")

	return cmd
}

func trackClickCmd() *cobra.Command {
	var ev constructorio.SearchResultClick

	cmd := &cobra.Command{
		Use:   "click <item-id>",
		Short: "Search result clicked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.CustomerID = args[0]
			return runTrack(cmd, constructorio.EventSearchResultClick, func(ctx context.Context, c *constructorio.Client) {
				c.TrackSearchResultClick(ctx, ev)
			})
		},
	}
	cmd.Flags().StringVar(&ev.ItemName, "name", "", "item name")
	cmd.Flags().StringVar(&ev.SearchTerm, "term", "", "search term that produced the result")
	cmd.Flags().StringVar(&ev.SectionName, "section", "", "index section")
	cmd.Flags().StringVar(&ev.ResultID, "result-id", "", "result id of the search response")

	return cmd
}

func trackConversionCmd() *cobra.Command {
	var ev constructorio.Conversion
	var revenue float64

	cmd := &cobra.Command{
		Use:     "conversion <item-id>",
		Short:   "Item converted (e.g. added to cart)",
		Example: `  cnstrc track conversion 123 --term corn --revenue 4.99 --type add_to_cart`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.ItemID = args[0]
			ev.Revenue = optionalFloat(cmd, "revenue", revenue)
			return runTrack(cmd, constructorio.EventConversion, func(ctx context.Context, c *constructorio.Client) {
				c.TrackConversion(ctx, ev)
			})
		},
	}
	cmd.Flags().StringVar(&ev.SearchTerm, "term", "", "search term that led to the conversion")
	cmd.Flags().StringVar(&ev.ItemName, "name", "", "item name")
	cmd.Flags().Float64Var(&revenue, "revenue", 0, "revenue")
	cmd.Flags().StringVar(&ev.ConversionType, "type", "", "conversion type")
	cmd.Flags().StringVar(&ev.SectionName, "section", "", "index section")

	return cmd
}

func trackPurchaseCmd() *cobra.Command {
	var ev constructorio.Purchase
	var revenue float64

	cmd := &cobra.Command{
		Use:     "purchase <item-id>...",
		Short:   "Order completed",
		Example: `  cnstrc track purchase 123 456 --order-id A-1 --revenue 19.98`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.Items = nil
			for _, id := range args {
				ev.Items = append(ev.Items, domain.PurchaseItem{ItemID: id})
			}
			ev.Revenue = optionalFloat(cmd, "revenue", revenue)
			return runTrack(cmd, constructorio.EventPurchase, func(ctx context.Context, c *constructorio.Client) {
				c.TrackPurchase(ctx, ev)
			})
		},
	}
	cmd.Flags().StringVar(&ev.OrderID, "order-id", "", "order id")
	cmd.Flags().Float64Var(&revenue, "revenue", 0, "order revenue")
	cmd.Flags().StringVar(&ev.SectionName, "section", "", "index section")

	return cmd
}

func trackBrowseLoadedCmd() *cobra.Command {
	var ev constructorio.BrowseResultsLoaded

	cmd := &cobra.Command{
		Use:   "browse-loaded <filter-name> <filter-value>",
		Short: "Browse page rendered",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.FilterName, ev.FilterValue = args[0], args[1]
			return runTrack(cmd, constructorio.EventBrowseResultsLoaded, func(ctx context.Context, c *constructorio.Client) {
				c.TrackBrowseResultsLoaded(ctx, ev)
			})
		},
	}
	cmd.Flags().IntVar(&ev.ResultCount, "count", 0, "number of results shown")
	cmd.Flags().StringVar(&ev.URL, "url", "", "page url")
	cmd.Flags().StringVar(&ev.SectionName, "section", "", "index section")

	return cmd
}

func trackBrowseClickCmd() *cobra.Command {
	var ev constructorio.BrowseResultClick
	var position int

	cmd := &cobra.Command{
		Use:   "browse-click <filter-name> <filter-value> <item-id>",
		Short: "Browse result clicked",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.FilterName, ev.FilterValue, ev.CustomerID = args[0], args[1], args[2]
			ev.ResultPositionOnPage = optionalInt(cmd, "position", position)
			return runTrack(cmd, constructorio.EventBrowseResultClick, func(ctx context.Context, c *constructorio.Client) {
				c.TrackBrowseResultClick(ctx, ev)
			})
		},
	}
	cmd.Flags().IntVar(&position, "position", 0, "1-based position on the page")
	cmd.Flags().StringVar(&ev.SectionName, "section", "", "index section")
	cmd.Flags().StringVar(&ev.ResultID, "result-id", "", "result id of the browse response")

	return cmd
}

func trackRecClickCmd() *cobra.Command {
	var ev constructorio.RecommendationResultClick
	var perPage, page, count, position int

	cmd := &cobra.Command{
		Use:   "rec-click <pod-id> <item-id>",
		Short: "Recommended item clicked",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.PodID, ev.CustomerID = args[0], args[1]
			ev.NumResultsPerPage = optionalInt(cmd, "per-page", perPage)
			ev.ResultPage = optionalInt(cmd, "page", page)
			ev.ResultCount = optionalInt(cmd, "count", count)
			ev.ResultPositionOnPage = optionalInt(cmd, "position", position)
			return runTrack(cmd, constructorio.EventRecommendationResultClick, func(ctx context.Context, c *constructorio.Client) {
				c.TrackRecommendationResultClick(ctx, ev)
			})
		},
	}
	cmd.Flags().StringVar(&ev.StrategyID, "strategy-id", "", "strategy that produced the item")
	cmd.Flags().StringVar(&ev.VariationID, "variation-id", "", "variation id")
	cmd.Flags().StringVar(&ev.ResultID, "result-id", "", "result id of the recommendations response")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "results per page")
	cmd.Flags().IntVar(&page, "page", 0, "result page")
	cmd.Flags().IntVar(&count, "count", 0, "total results")
	cmd.Flags().IntVar(&position, "position", 0, "1-based position on the page")
	cmd.Flags().StringVar(&ev.SectionName, "section", "", "index section")

	return cmd
}

func trackRecViewCmd() *cobra.Command {
	var ev constructorio.RecommendationResultsView
	var page, count int

	cmd := &cobra.Command{
		Use:   "rec-view <pod-id>",
		Short: "Recommendation pod shown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev.PodID = args[0]
			if ev.NumResultsViewed < 0 {
				return errors.New("--viewed must not be negative")
			}
			ev.ResultPage = optionalInt(cmd, "page", page)
			ev.ResultCount = optionalInt(cmd, "count", count)
			return runTrack(cmd, constructorio.EventRecommendationResultsView, func(ctx context.Context, c *constructorio.Client) {
				c.TrackRecommendationResultsView(ctx, ev)
			})
		},
	}
	cmd.Flags().IntVar(&ev.NumResultsViewed, "viewed", 0, "number of items shown")
	cmd.Flags().IntVar(&page, "page", 0, "result page")
	cmd.Flags().IntVar(&count, "count", 0, "total results")
	cmd.Flags().StringVar(&ev.ResultID, "result-id", "", "result id of the recommendations response")
	cmd.Flags().StringVar(&ev.URL, "url", "", "page url")
	cmd.Flags().StringVar(&ev.SectionName, "section", "", "index section")

	return cmd
}
