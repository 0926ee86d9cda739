package constructorio

import (
	"context"
	"fmt"

	domain "github.com/donaldgifford/constructorio-go/pkg/types"
)

const (
	defaultPageSize = 24
	defaultMaxPages = 10
)

// Reasons a paginated fetch stopped.
const (
	StopNoMoreResults = "no_more_results"
	StopMaxPages      = "max_pages"
	StopRedirect      = "redirect"
)

// PageOption configures SearchPages and BrowsePages.
type PageOption func(*pager)

type pager struct {
	pageSize int
	maxPages int
}

// WithPageSize overrides the default page size.
func WithPageSize(size int) PageOption {
	return func(p *pager) {
		if size > 0 {
			p.pageSize = size
		}
	}
}

// WithMaxPages overrides the default max pages.
func WithMaxPages(n int) PageOption {
	return func(p *pager) {
		if n > 0 {
			p.maxPages = n
		}
	}
}

// PageResult holds the results collected across pages.
type PageResult struct {
	Results         []domain.Result
	TotalNumResults int
	PagesFetched    int
	ResultIDs       []string
	// Redirect is set when the first page answered with a redirect rule.
	Redirect  *domain.Redirect
	StoppedAt string // "no_more_results", "max_pages", "redirect"
}

// SearchPages fetches consecutive search pages starting at req.Page (or 1),
// stopping when:
// - a page comes back empty or every result has been collected
// - max pages reached
// - the server answers with a redirect
func (c *Client) SearchPages(ctx context.Context, req SearchRequest, opts ...PageOption) (*PageResult, error) {
	p := newPager(req.PerPage, opts)
	req.PerPage = p.pageSize
	first := max(req.Page, 1)

	return p.collect(first, func(page int) (*domain.SearchData, string, error) {
		req.Page = page
		res := c.Search(ctx, req)
		if res.IsError() {
			return nil, "", res.Err
		}
		return res.Value.Response, res.ResultID, nil
	})
}

// BrowsePages is SearchPages for browse requests.
func (c *Client) BrowsePages(ctx context.Context, req BrowseRequest, opts ...PageOption) (*PageResult, error) {
	p := newPager(req.PerPage, opts)
	req.PerPage = p.pageSize
	first := max(req.Page, 1)

	return p.collect(first, func(page int) (*domain.SearchData, string, error) {
		req.Page = page
		res := c.Browse(ctx, req)
		if res.IsError() {
			return nil, "", res.Err
		}
		return res.Value.Response, res.ResultID, nil
	})
}

func newPager(perPage int, opts []PageOption) *pager {
	p := &pager{pageSize: defaultPageSize, maxPages: defaultMaxPages}
	if perPage > 0 {
		p.pageSize = perPage
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pager) collect(
	first int,
	fetchPage func(page int) (*domain.SearchData, string, error),
) (*PageResult, error) {
	result := &PageResult{}

	for i := range p.maxPages {
		page := first + i
		data, resultID, err := fetchPage(page)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}

		result.PagesFetched++
		result.ResultIDs = append(result.ResultIDs, resultID)

		if data == nil {
			result.StoppedAt = StopNoMoreResults
			return result, nil
		}
		if data.Redirect != nil {
			result.Redirect = data.Redirect
			result.StoppedAt = StopRedirect
			return result, nil
		}

		result.TotalNumResults = data.TotalNumResults
		result.Results = append(result.Results, data.Results...)

		if len(data.Results) == 0 || len(data.Results) < p.pageSize ||
			(page*p.pageSize) >= data.TotalNumResults {
			result.StoppedAt = StopNoMoreResults
			return result, nil
		}
	}

	result.StoppedAt = StopMaxPages
	return result, nil
}
