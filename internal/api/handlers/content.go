package handlers

import (
	"cmp"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	domain "github.com/donaldgifford/constructorio-go/pkg/types"
)

const (
	productsSection    = "Products"
	suggestionsSection = "Search Suggestions"

	defaultPerPage         = 20
	maxPerPage             = 200
	defaultSectionSize     = 10
	defaultRecommendations = 10
)

// ContentHandler answers autocomplete, search, browse and recommendations
// requests from a Catalog.
type ContentHandler struct {
	catalog *Catalog
	apiKey  string
	newID   func() string
}

// NewContentHandler creates a ContentHandler. A non-empty apiKey is the
// only key accepted.
func NewContentHandler(catalog *Catalog, apiKey string) *ContentHandler {
	return &ContentHandler{catalog: catalog, apiKey: apiKey, newID: uuid.NewString}
}

// Autocomplete serves GET /autocomplete/:term with a "Search Suggestions"
// and a "Products" section.
func (h *ContentHandler) Autocomplete(c echo.Context) error {
	if err := checkKey(c, h.apiKey); err != nil {
		return err
	}
	term := pathParam(c, "term")
	q := c.QueryParams()

	def, err := intParam(q, "num_results", defaultSectionSize, 0)
	if err != nil {
		return err
	}
	nSuggestions, err := intParam(q, "num_results_"+suggestionsSection, def, 0)
	if err != nil {
		return err
	}
	nProducts, err := intParam(q, "num_results_"+productsSection, def, 0)
	if err != nil {
		return err
	}

	filters := parseFilters(q)
	suggestions := make([]domain.Result, 0, nSuggestions)
	for i, s := range h.catalog.SuggestionsFor(term) {
		if i == nSuggestions {
			break
		}
		r := domain.Result{Value: s}
		if i == 0 {
			r.Data.Groups = h.suggestionGroups(s)
		}
		suggestions = append(suggestions, r)
	}

	products := make([]domain.Result, 0, nProducts)
	for _, p := range h.catalog.Search(term) {
		if len(products) == nProducts {
			break
		}
		if matchesFilters(p, filters) {
			products = append(products, h.catalog.Result(p))
		}
	}

	return c.JSON(http.StatusOK, domain.AutocompleteResponse{
		Sections: map[string][]domain.Result{
			suggestionsSection: suggestions,
			productsSection:    products,
		},
		ResultID: h.newID(),
		Request: map[string]any{
			"term":        term,
			"num_results": def,
			"filters":     filters,
		},
	})
}

// suggestionGroups scopes the top suggestion to the group of its best
// matching product.
func (h *ContentHandler) suggestionGroups(suggestion string) []domain.ResultGroup {
	matches := h.catalog.Search(suggestion)
	if len(matches) == 0 {
		return nil
	}
	g, ok := h.catalog.Group(matches[0].GroupID)
	if !ok {
		return nil
	}
	return []domain.ResultGroup{{GroupID: g.GroupID, DisplayName: g.DisplayName}}
}

// Search serves GET /search/:term. Terms matching a redirect rule return
// the redirect and no results.
func (h *ContentHandler) Search(c echo.Context) error {
	if err := checkKey(c, h.apiKey); err != nil {
		return err
	}
	term := pathParam(c, "term")
	l, err := parseListing(c.QueryParams())
	if err != nil {
		return err
	}

	var data *domain.SearchData
	if r := h.catalog.Redirect(term); r != nil {
		data = &domain.SearchData{Redirect: r, Results: []domain.Result{}}
	} else {
		data = h.listing(h.catalog.Search(term), l)
	}

	return c.JSON(http.StatusOK, domain.SearchResponse{
		Response: data,
		ResultID: h.newID(),
		Request:  l.request(map[string]any{"term": term}),
	})
}

// Browse serves GET /browse/:filter_name/:filter_value. The path filter is
// applied on top of any filters[...] parameters.
func (h *ContentHandler) Browse(c echo.Context) error {
	if err := checkKey(c, h.apiKey); err != nil {
		return err
	}
	name, value := pathParam(c, "filter_name"), pathParam(c, "filter_value")
	l, err := parseListing(c.QueryParams())
	if err != nil {
		return err
	}

	candidates := slices.DeleteFunc(slices.Clone(h.catalog.Products), func(p Product) bool {
		return !matchesFilters(p, map[string][]string{name: {value}})
	})

	return c.JSON(http.StatusOK, domain.BrowseResponse{
		Response: h.listing(candidates, l),
		ResultID: h.newID(),
		Request: l.request(map[string]any{
			"browse_filter_name":  name,
			"browse_filter_value": value,
		}),
	})
}

// Recommendations serves GET /recommendations/v1/pods/:pod_id. Seed items
// are excluded and products sharing a seed's group are ranked first.
func (h *ContentHandler) Recommendations(c echo.Context) error {
	if err := checkKey(c, h.apiKey); err != nil {
		return err
	}
	podID := pathParam(c, "pod_id")
	pod, ok := h.catalog.Pod(podID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("pod %q not found", podID))
	}

	q := c.QueryParams()
	n, err := intParam(q, "num_results", defaultRecommendations, 1)
	if err != nil {
		return err
	}
	seeds := q["item_id"]
	filters := parseFilters(q)

	seedGroups := map[string]bool{}
	for _, p := range h.catalog.Products {
		if slices.Contains(seeds, p.ID) {
			seedGroups[p.GroupID] = true
		}
	}

	var candidates []Product
	for _, p := range h.catalog.Search(q.Get("term")) {
		if !slices.Contains(seeds, p.ID) && matchesFilters(p, filters) {
			candidates = append(candidates, p)
		}
	}
	slices.SortStableFunc(candidates, func(a, b Product) int {
		switch {
		case seedGroups[a.GroupID] == seedGroups[b.GroupID]:
			return 0
		case seedGroups[a.GroupID]:
			return -1
		default:
			return 1
		}
	})

	results := make([]domain.Result, 0, min(n, len(candidates)))
	for _, p := range candidates[:min(n, len(candidates))] {
		r := h.catalog.Result(p)
		r.Strategy = &domain.Strategy{ID: pod.Strategy}
		results = append(results, r)
	}

	return c.JSON(http.StatusOK, domain.RecommendationsResponse{
		Response: &domain.RecommendationsData{
			Pod:             &domain.Pod{ID: pod.ID, DisplayName: pod.DisplayName},
			Results:         results,
			TotalNumResults: len(candidates),
		},
		ResultID: h.newID(),
		Request: map[string]any{
			"pod_id":      pod.ID,
			"item_id":     seeds,
			"num_results": n,
			"filters":     filters,
		},
	})
}

// listingParams are the paging, sorting and filter parameters shared by
// search and browse.
type listingParams struct {
	filters   map[string][]string
	page      int
	perPage   int
	sortBy    string
	sortOrder string
	section   string
}

func parseListing(q url.Values) (listingParams, *echo.HTTPError) {
	l := listingParams{
		filters:   parseFilters(q),
		sortBy:    q.Get("sort_by"),
		sortOrder: q.Get("sort_order"),
		section:   cmp.Or(q.Get("section"), productsSection),
	}

	var err *echo.HTTPError
	if l.page, err = intParam(q, "page", 1, 1); err != nil {
		return l, err
	}
	if l.perPage, err = intParam(q, "num_results_per_page", defaultPerPage, 1); err != nil {
		return l, err
	}
	if l.perPage > maxPerPage {
		return l, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("num_results_per_page must be at most %d", maxPerPage))
	}
	switch l.sortOrder {
	case "", "ascending", "descending":
	default:
		return l, echo.NewHTTPError(http.StatusBadRequest, "sort_order must be ascending or descending")
	}
	return l, nil
}

func (l listingParams) request(extra map[string]any) map[string]any {
	req := map[string]any{
		"page":                 l.page,
		"num_results_per_page": l.perPage,
		"section":              l.section,
		"filters":              l.filters,
	}
	if l.sortBy != "" {
		req["sort_by"] = l.sortBy
		req["sort_order"] = cmp.Or(l.sortOrder, "descending")
	}
	for k, v := range extra {
		req[k] = v
	}
	return req
}

// listing filters, counts, sorts and pages candidates.
func (h *ContentHandler) listing(candidates []Product, l listingParams) *domain.SearchData {
	if l.section != productsSection {
		candidates = nil
	}

	var matched []Product
	for _, p := range candidates {
		if matchesFilters(p, l.filters) {
			matched = append(matched, p)
		}
	}
	sortProducts(matched, l.sortBy, l.sortOrder)

	data := &domain.SearchData{
		Results:         []domain.Result{},
		Facets:          facetCounts(candidates, l.filters),
		Groups:          h.groupCounts(matched),
		SortOptions:     sortOptions(l.sortBy, l.sortOrder),
		TotalNumResults: len(matched),
	}
	pages := (len(matched) + l.perPage - 1) / l.perPage
	if l.page > pages {
		return data
	}
	start := (l.page - 1) * l.perPage
	for _, p := range matched[start:min(start+l.perPage, len(matched))] {
		data.Results = append(data.Results, h.catalog.Result(p))
	}
	return data
}

func (h *ContentHandler) groupCounts(matched []Product) []domain.FilterGroup {
	counts := map[string]int{}
	for _, p := range matched {
		counts[p.GroupID]++
	}
	total := len(matched)
	root := domain.FilterGroup{GroupID: "all", DisplayName: "All", Count: &total}
	for _, id := range sortedKeys(counts) {
		n := counts[id]
		child := domain.FilterGroup{GroupID: id, DisplayName: id, Count: &n}
		if g, ok := h.catalog.Group(id); ok {
			child.DisplayName = g.DisplayName
		}
		root.Children = append(root.Children, child)
	}
	return []domain.FilterGroup{root}
}

// facetCounts counts each facet over the candidates that pass every other
// facet's filter, so selecting a value does not hide its siblings.
func facetCounts(candidates []Product, filters map[string][]string) []domain.FilterFacet {
	names := map[string]struct{}{}
	for _, p := range candidates {
		for name := range p.Facets {
			names[name] = struct{}{}
		}
	}

	var facets []domain.FilterFacet
	for _, name := range sortedKeys(names) {
		others := make(map[string][]string, len(filters))
		for k, v := range filters {
			if k != name {
				others[k] = v
			}
		}
		counts := map[string]int{}
		for _, p := range candidates {
			if !matchesFilters(p, others) {
				continue
			}
			for _, v := range p.Facets[name] {
				counts[v]++
			}
		}
		if len(counts) == 0 {
			continue
		}

		f := domain.FilterFacet{DisplayName: displayName(name), Name: name, Type: "multiple"}
		for _, v := range sortedKeys(counts) {
			opt := domain.FilterFacetOption{Count: counts[v], DisplayName: v, Value: v}
			if slices.Contains(filters[name], v) {
				opt.Status = "selected"
			}
			f.Options = append(f.Options, opt)
		}
		facets = append(facets, f)
	}
	return facets
}

func displayName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + strings.ReplaceAll(name[1:], "_", " ")
}

func sortProducts(ps []Product, by, order string) {
	var cmpFn func(a, b Product) int
	switch by {
	case "price":
		cmpFn = func(a, b Product) int { return cmp.Compare(a.Price, b.Price) }
	case "name":
		cmpFn = func(a, b Product) int { return strings.Compare(a.Name, b.Name) }
	default:
		return
	}
	if order != "ascending" {
		asc := cmpFn
		cmpFn = func(a, b Product) int { return asc(b, a) }
	}
	slices.SortStableFunc(ps, cmpFn)
}

func sortOptions(by, order string) []domain.FilterSortOption {
	opts := []domain.FilterSortOption{
		{DisplayName: "Price: Low to High", SortBy: "price", SortOrder: "ascending"},
		{DisplayName: "Price: High to Low", SortBy: "price", SortOrder: "descending"},
		{DisplayName: "Name", SortBy: "name", SortOrder: "ascending"},
	}
	order = cmp.Or(order, "descending")
	for i := range opts {
		if opts[i].SortBy == by && opts[i].SortOrder == order {
			opts[i].Status = "selected"
		}
	}
	return opts
}

// parseFilters collects filters[name]=value parameters. Values of one name
// are alternatives; different names must all match.
func parseFilters(q url.Values) map[string][]string {
	out := map[string][]string{}
	for k, vs := range q {
		name, ok := strings.CutPrefix(k, "filters[")
		if !ok || !strings.HasSuffix(name, "]") {
			continue
		}
		out[strings.TrimSuffix(name, "]")] = vs
	}
	return out
}

func matchesFilters(p Product, filters map[string][]string) bool {
	for name, want := range filters {
		have := p.Facets[name]
		if name == "group_id" {
			have = []string{p.GroupID}
		}
		if !slices.ContainsFunc(want, func(v string) bool { return slices.Contains(have, v) }) {
			return false
		}
	}
	return true
}

func intParam(q url.Values, name string, def, minimum int) (int, *echo.HTTPError) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minimum {
		return 0, echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("%s must be an integer of at least %d", name, minimum))
	}
	return n, nil
}
