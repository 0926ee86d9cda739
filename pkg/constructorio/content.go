package constructorio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/donaldgifford/constructorio-go/internal/query"
	"github.com/donaldgifford/constructorio-go/internal/remote"
	"github.com/donaldgifford/constructorio-go/pkg/notify"
	domain "github.com/donaldgifford/constructorio-go/pkg/types"
)

// Autocomplete returns suggestions and products for a partial term.
func (c *Client) Autocomplete(ctx context.Context, req AutocompleteRequest) Result[domain.AutocompleteResponse] {
	if strings.TrimSpace(req.Term) == "" {
		return failure[domain.AutocompleteResponse](invalid("autocomplete term is required"))
	}
	params, err := autocompleteParams(req, c.cfg.AutocompleteResultCount)
	if err != nil {
		return failure[domain.AutocompleteResponse](classify(err))
	}

	res := fetch(ctx, c, remote.Autocomplete, []string{req.Term}, params,
		func(r *domain.AutocompleteResponse) string { return r.ResultID })
	if !res.IsError() {
		c.notify(notify.Event{
			Name:  notify.EventSuggestionsRetrieved,
			Term:  req.Term,
			Count: len(res.Value.Section(SearchSuggestionsSection)),
		})
	}
	return res
}

// Search returns results, facets, groups and sort options for a term.
func (c *Client) Search(ctx context.Context, req SearchRequest) Result[domain.SearchResponse] {
	if strings.TrimSpace(req.Term) == "" {
		return failure[domain.SearchResponse](invalid("search term is required"))
	}
	if err := validListing(req.Page, req.PerPage, req.SortOrder, req.GroupsSortOrder); err != nil {
		return failure[domain.SearchResponse](err)
	}
	params, err := searchParams(req)
	if err != nil {
		return failure[domain.SearchResponse](classify(err))
	}

	return fetch(ctx, c, remote.Search, []string{req.Term}, params,
		func(r *domain.SearchResponse) string { return r.ResultID })
}

// Browse returns the items of a browse page, such as a category.
func (c *Client) Browse(ctx context.Context, req BrowseRequest) Result[domain.BrowseResponse] {
	if strings.TrimSpace(req.FilterName) == "" || strings.TrimSpace(req.FilterValue) == "" {
		return failure[domain.BrowseResponse](invalid("browse filter name and value are required"))
	}
	if err := validListing(req.Page, req.PerPage, req.SortOrder, req.GroupsSortOrder); err != nil {
		return failure[domain.BrowseResponse](err)
	}
	params, err := browseParams(req)
	if err != nil {
		return failure[domain.BrowseResponse](classify(err))
	}

	return fetch(ctx, c, remote.Browse, []string{req.FilterName, req.FilterValue}, params,
		func(r *domain.BrowseResponse) string { return r.ResultID })
}

// Recommendations returns the items of a recommendation pod.
func (c *Client) Recommendations(ctx context.Context, req RecommendationsRequest) Result[domain.RecommendationsResponse] {
	if strings.TrimSpace(req.PodID) == "" {
		return failure[domain.RecommendationsResponse](invalid("recommendations pod id is required"))
	}
	if req.NumResults < 0 {
		return failure[domain.RecommendationsResponse](invalid("num results must not be negative"))
	}

	return fetch(ctx, c, remote.Recommendations, []string{req.PodID}, recommendationsParams(req),
		func(r *domain.RecommendationsResponse) string { return r.ResultID })
}

func validListing(page, perPage int, orders ...SortOrder) error {
	if page < 0 {
		return invalid("page must not be negative")
	}
	if perPage < 0 {
		return invalid("num results per page must not be negative")
	}
	for _, o := range orders {
		if err := validSortOrder(o); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	return nil
}

// fetch performs a content call and decodes the body into T.
func fetch[T any](
	ctx context.Context,
	c *Client,
	ep remote.Endpoint,
	pathArgs []string,
	params query.Params,
	resultID func(*T) string,
) Result[T] {
	body, err := c.api.Do(ctx, remote.Call{
		Endpoint: ep,
		PathArgs: pathArgs,
		Params:   params,
		Identity: c.identity(ctx),
	})
	if err != nil {
		c.log.Debug("content request failed", "endpoint", ep.Name, "err", err)
		return failure[T](classify(err))
	}

	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return failure[T](fmt.Errorf("%w: decoding %s response: %w", ErrMalformedResponse, ep.Name, err))
	}
	return success(&v, resultID(&v))
}
