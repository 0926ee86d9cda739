package constructorio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/donaldgifford/constructorio-go/internal/metrics"
	"github.com/donaldgifford/constructorio-go/internal/query"
	"github.com/donaldgifford/constructorio-go/internal/remote"
	"github.com/donaldgifford/constructorio-go/pkg/notify"
	domain "github.com/donaldgifford/constructorio-go/pkg/types"
)

// Tracking event names, as reported to the error handler and metrics.
const (
	EventSessionStart              = "session_start"
	EventInputFocus                = "input_focus"
	EventAutocompleteSelect        = "autocomplete_select"
	EventSearchSubmit              = "search_submit"
	EventSearchResultsLoaded       = "search_results_loaded"
	EventSearchResultClick         = "search_result_click"
	EventConversion                = "conversion"
	EventPurchase                  = "purchase"
	EventBrowseResultsLoaded       = "browse_results_loaded"
	EventBrowseResultClick         = "browse_result_click"
	EventRecommendationResultClick = "recommendation_result_click"
	EventRecommendationResultsView = "recommendation_results_view"
)

// SearchGroup is the group a selected suggestion belongs to.
type SearchGroup struct {
	GroupID     string
	DisplayName string
}

// AutocompleteSelect records a suggestion picked from the autocomplete list.
type AutocompleteSelect struct {
	SearchTerm    string
	OriginalQuery string
	// SectionName defaults to "Search Suggestions".
	SectionName string
	Group       *SearchGroup
	ResultID    string
}

// SearchSubmit records a search submitted from the search box.
type SearchSubmit struct {
	SearchTerm    string
	OriginalQuery string
	Group         *SearchGroup
}

// SearchResultsLoaded records a rendered search results page.
type SearchResultsLoaded struct {
	Term        string
	ResultCount int
	CustomerIDs []string
}

// SearchResultClick records a click on a search result.
type SearchResultClick struct {
	ItemName    string
	CustomerID  string
	SearchTerm  string
	SectionName string
	ResultID    string
}

// Conversion records an add-to-cart or other conversion.
type Conversion struct {
	// SearchTerm defaults to TERM_UNKNOWN.
	SearchTerm     string
	ItemID         string
	ItemName       string
	Revenue        *float64
	ConversionType string
	SectionName    string
}

// Purchase records a completed order.
type Purchase struct {
	Items       []domain.PurchaseItem
	OrderID     string
	Revenue     *float64
	SectionName string
}

// BrowseResultsLoaded records a rendered browse page.
type BrowseResultsLoaded struct {
	FilterName  string
	FilterValue string
	ResultCount int
	URL         string
	SectionName string
}

// BrowseResultClick records a click on a browse result.
type BrowseResultClick struct {
	FilterName           string
	FilterValue          string
	CustomerID           string
	ResultPositionOnPage *int
	SectionName          string
	ResultID             string
}

// RecommendationResultClick records a click on a recommended item.
type RecommendationResultClick struct {
	PodID                string
	StrategyID           string
	CustomerID           string
	VariationID          string
	ResultID             string
	NumResultsPerPage    *int
	ResultPage           *int
	ResultCount          *int
	ResultPositionOnPage *int
	SectionName          string
}

// RecommendationResultsView records a recommendation pod being shown.
type RecommendationResultsView struct {
	PodID            string
	NumResultsViewed int
	ResultPage       *int
	ResultCount      *int
	ResultID         string
	URL              string
	SectionName      string
}

// beacon describes one tracking request before it is queued.
type beacon struct {
	event    string
	call     remote.Call
	section  string
	onSentFn func(ctx context.Context)
}

// TrackInputFocus records focus on the search input. term may be empty.
func (c *Client) TrackInputFocus(ctx context.Context, term string) {
	var p query.Params
	p.AddIfSet("term", term)
	p.Add("action", "focus")
	c.track(ctx, beacon{
		event: EventInputFocus,
		call:  remote.Call{Endpoint: remote.Behavior, Params: p},
	})
}

// TrackAutocompleteSelect records a selected suggestion and notifies the
// host with query_sent once the beacon is accepted.
func (c *Client) TrackAutocompleteSelect(ctx context.Context, ev AutocompleteSelect) {
	if blank(ev.SearchTerm) {
		c.rejectEvent(EventAutocompleteSelect, "search term is required")
		return
	}
	section := ev.SectionName
	if section == "" {
		section = SearchSuggestionsSection
	}

	var p query.Params
	p.Add("section", section)
	p.AddIfSet("original_query", ev.OriginalQuery)
	p.Add("tr", "click")
	addGroup(&p, ev.Group)
	p.AddIfSet("result_id", ev.ResultID)

	c.track(ctx, beacon{
		event:    EventAutocompleteSelect,
		call:     remote.Call{Endpoint: remote.AutocompleteSelect, PathArgs: []string{ev.SearchTerm}, Params: p},
		onSentFn: c.querySent(ev.SearchTerm),
	})
}

// TrackSearchSubmit records a submitted search and notifies the host with
// query_sent once the beacon is accepted.
func (c *Client) TrackSearchSubmit(ctx context.Context, ev SearchSubmit) {
	if blank(ev.SearchTerm) {
		c.rejectEvent(EventSearchSubmit, "search term is required")
		return
	}

	var p query.Params
	p.AddIfSet("original_query", ev.OriginalQuery)
	p.Add("tr", "search")
	addGroup(&p, ev.Group)

	c.track(ctx, beacon{
		event:    EventSearchSubmit,
		call:     remote.Call{Endpoint: remote.SearchSubmit, PathArgs: []string{ev.SearchTerm}, Params: p},
		onSentFn: c.querySent(ev.SearchTerm),
	})
}

// TrackSearchResultsLoaded records a rendered search results page.
func (c *Client) TrackSearchResultsLoaded(ctx context.Context, ev SearchResultsLoaded) {
	if blank(ev.Term) {
		c.rejectEvent(EventSearchResultsLoaded, "term is required")
		return
	}
	if ev.ResultCount < 0 {
		c.rejectEvent(EventSearchResultsLoaded, "result count must not be negative")
		return
	}

	var p query.Params
	p.Add("term", ev.Term)
	p.Add("num_results", strconv.Itoa(ev.ResultCount))
	p.AddAll("customer_ids", ev.CustomerIDs)
	p.Add("action", "search-results")

	c.track(ctx, beacon{
		event: EventSearchResultsLoaded,
		call:  remote.Call{Endpoint: remote.Behavior, Params: p},
	})
}

// TrackSearchResultClick records a click on a search result.
func (c *Client) TrackSearchResultClick(ctx context.Context, ev SearchResultClick) {
	if blank(ev.CustomerID) {
		c.rejectEvent(EventSearchResultClick, "customer id is required")
		return
	}
	term := ev.SearchTerm
	if blank(term) {
		term = unknownTerm
	}

	var p query.Params
	p.AddIfSet("name", ev.ItemName)
	p.Add("customer_id", ev.CustomerID)
	p.Add("section", c.section(ev.SectionName))
	p.AddIfSet("result_id", ev.ResultID)

	c.track(ctx, beacon{
		event: EventSearchResultClick,
		call:  remote.Call{Endpoint: remote.SearchResultClick, PathArgs: []string{term}, Params: p},
	})
}

// TrackConversion records a conversion. Revenue is sent with two decimals.
func (c *Client) TrackConversion(ctx context.Context, ev Conversion) {
	if blank(ev.ItemID) {
		c.rejectEvent(EventConversion, "item id is required")
		return
	}
	term := ev.SearchTerm
	if blank(term) {
		term = unknownTerm
	}
	body := &domain.ConversionBody{
		SearchTerm: term,
		ItemID:     ev.ItemID,
		ItemName:   ev.ItemName,
		Type:       ev.ConversionType,
	}
	if ev.Revenue != nil {
		body.Revenue = fmt.Sprintf("%.2f", *ev.Revenue)
	}

	c.track(ctx, beacon{
		event:   EventConversion,
		call:    remote.Call{Endpoint: remote.Conversion, Body: body},
		section: c.section(ev.SectionName),
	})
}

// TrackPurchase records a completed order.
func (c *Client) TrackPurchase(ctx context.Context, ev Purchase) {
	if len(ev.Items) == 0 {
		c.rejectEvent(EventPurchase, "at least one item is required")
		return
	}
	if blank(ev.OrderID) {
		c.rejectEvent(EventPurchase, "order id is required")
		return
	}
	for _, it := range ev.Items {
		if blank(it.ItemID) {
			c.rejectEvent(EventPurchase, "every item needs an item id")
			return
		}
	}
	section := c.section(ev.SectionName)

	var p query.Params
	p.Add("section", section)

	c.track(ctx, beacon{
		event: EventPurchase,
		call: remote.Call{
			Endpoint: remote.Purchase,
			Params:   p,
			Body:     &domain.PurchaseBody{Items: ev.Items, OrderID: ev.OrderID, Revenue: ev.Revenue},
		},
		section: section,
	})
}

// TrackBrowseResultsLoaded records a rendered browse page.
func (c *Client) TrackBrowseResultsLoaded(ctx context.Context, ev BrowseResultsLoaded) {
	if blank(ev.FilterName) || blank(ev.FilterValue) {
		c.rejectEvent(EventBrowseResultsLoaded, "filter name and value are required")
		return
	}
	if ev.ResultCount < 0 {
		c.rejectEvent(EventBrowseResultsLoaded, "result count must not be negative")
		return
	}

	c.track(ctx, beacon{
		event: EventBrowseResultsLoaded,
		call: remote.Call{
			Endpoint: remote.BrowseResultLoad,
			Body: &domain.BrowseResultLoadBody{
				FilterName:  ev.FilterName,
				FilterValue: ev.FilterValue,
				ResultCount: ev.ResultCount,
				URL:         orNotAvailable(ev.URL),
			},
		},
		section: c.section(ev.SectionName),
	})
}

// TrackBrowseResultClick records a click on a browse result.
func (c *Client) TrackBrowseResultClick(ctx context.Context, ev BrowseResultClick) {
	if blank(ev.FilterName) || blank(ev.FilterValue) || blank(ev.CustomerID) {
		c.rejectEvent(EventBrowseResultClick, "filter name, filter value and customer id are required")
		return
	}
	section := c.section(ev.SectionName)

	var p query.Params
	p.Add("section", section)
	p.AddIfSet("result_id", ev.ResultID)

	c.track(ctx, beacon{
		event: EventBrowseResultClick,
		call: remote.Call{
			Endpoint: remote.BrowseResultClick,
			Params:   p,
			Body: &domain.BrowseResultClickBody{
				FilterName:           ev.FilterName,
				FilterValue:          ev.FilterValue,
				ItemID:               ev.CustomerID,
				ResultPositionOnPage: ev.ResultPositionOnPage,
			},
		},
		section: section,
	})
}

// TrackRecommendationResultClick records a click on a recommended item.
func (c *Client) TrackRecommendationResultClick(ctx context.Context, ev RecommendationResultClick) {
	if blank(ev.PodID) || blank(ev.CustomerID) {
		c.rejectEvent(EventRecommendationResultClick, "pod id and customer id are required")
		return
	}
	section := c.section(ev.SectionName)

	var p query.Params
	p.Add("section", section)

	c.track(ctx, beacon{
		event: EventRecommendationResultClick,
		call: remote.Call{
			Endpoint: remote.RecommendationResultClick,
			Params:   p,
			Body: &domain.RecommendationResultClickBody{
				PodID:                ev.PodID,
				StrategyID:           ev.StrategyID,
				ItemID:               ev.CustomerID,
				VariationID:          ev.VariationID,
				ResultID:             ev.ResultID,
				NumResultsPerPage:    ev.NumResultsPerPage,
				ResultPage:           ev.ResultPage,
				ResultCount:          ev.ResultCount,
				ResultPositionOnPage: ev.ResultPositionOnPage,
			},
		},
		section: section,
	})
}

// TrackRecommendationResultsView records a recommendation pod being shown.
func (c *Client) TrackRecommendationResultsView(ctx context.Context, ev RecommendationResultsView) {
	if blank(ev.PodID) {
		c.rejectEvent(EventRecommendationResultsView, "pod id is required")
		return
	}
	if ev.NumResultsViewed < 0 {
		c.rejectEvent(EventRecommendationResultsView, "num results viewed must not be negative")
		return
	}
	section := c.section(ev.SectionName)

	var p query.Params
	p.Add("section", section)

	c.track(ctx, beacon{
		event: EventRecommendationResultsView,
		call: remote.Call{
			Endpoint: remote.RecommendationResultView,
			Params:   p,
			Body: &domain.RecommendationResultViewBody{
				PodID:            ev.PodID,
				NumResultsViewed: ev.NumResultsViewed,
				ResultPage:       ev.ResultPage,
				ResultCount:      ev.ResultCount,
				ResultID:         ev.ResultID,
				URL:              orNotAvailable(ev.URL),
			},
		},
		section: section,
	})
}

// trackSessionStart is the session callback. It runs once per new session
// id and must not touch the session again.
func (c *Client) trackSessionStart(_ context.Context, sessionID int) {
	var p query.Params
	p.Add("action", "session_start")

	call := remote.Call{
		Endpoint: remote.Behavior,
		Params:   p,
		Identity: remote.Identity{
			ClientID:  c.session.ClientID(),
			SessionID: sessionID,
			UserID:    c.UserID(),
		},
	}
	c.enqueue(beacon{event: EventSessionStart, call: call})
}

// track touches the session, stamps the identity onto the call and queues
// it.
func (c *Client) track(ctx context.Context, b beacon) {
	b.call.Identity = c.identity(ctx)
	c.enqueue(b)
}

func (c *Client) enqueue(b beacon) {
	if body, ok := b.call.Body.(domain.Beaconer); ok {
		body.SetBeacon(domain.Beacon{
			Version:   VersionString(),
			ClientID:  b.call.Identity.ClientID,
			SessionID: b.call.Identity.SessionID,
			APIKey:    c.cfg.APIKey,
			UserID:    b.call.Identity.UserID,
			Segments:  c.cfg.Segments,
			IsBeacon:  true,
			Section:   b.section,
			Timestamp: c.nowFunc().UnixMilli(),
		})
	}

	err := c.beacons.enqueue(job{
		event: b.event,
		run: func(ctx context.Context) {
			c.send(ctx, b)
		},
	})
	if err != nil {
		c.trackingFailed(b.event, fmt.Errorf("%w: %w", ErrTransport, err))
	}
}

// send runs on a beacon worker.
func (c *Client) send(ctx context.Context, b beacon) {
	if _, err := c.api.Do(ctx, b.call); err != nil {
		metrics.BeaconsTotal.WithLabelValues(b.event, metrics.OutcomeFailed).Inc()
		c.trackingFailed(b.event, classify(err))
		return
	}
	metrics.BeaconsTotal.WithLabelValues(b.event, metrics.OutcomeSent).Inc()
	if b.onSentFn != nil {
		b.onSentFn(ctx)
	}
}

func (c *Client) trackingFailed(event string, err error) {
	c.log.Warn("tracking request failed", "event", event, "err", err)
	if c.onTrackErr != nil {
		c.onTrackErr(event, err)
	}
}

func (c *Client) rejectEvent(event, msg string) {
	c.trackingFailed(event, invalid("%s", msg))
}

// querySent runs on the beacon worker that sent the select or submit.
func (c *Client) querySent(term string) func(context.Context) {
	return func(ctx context.Context) {
		c.deliver(ctx, notify.Event{Name: notify.EventQuerySent, Term: term, Time: c.nowFunc()})
	}
}

// section returns name, or the configured default item section.
func (c *Client) section(name string) string {
	if name != "" {
		return name
	}
	return c.cfg.DefaultItemSection
}

func addGroup(p *query.Params, g *SearchGroup) {
	if g == nil {
		return
	}
	p.AddIfSet("group[group_id]", g.GroupID)
	p.AddIfSet("group[display_name]", g.DisplayName)
}

func orNotAvailable(url string) string {
	if url == "" {
		return notAvailable
	}
	return url
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsTrackingDropped reports whether err means a beacon was dropped locally
// because the queue was full or the client was closed.
func IsTrackingDropped(err error) bool {
	return errors.Is(err, errDispatcherClosed) || errors.Is(err, errQueueFull)
}
