package constructorio

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/donaldgifford/constructorio-go/internal/query"
	domain "github.com/donaldgifford/constructorio-go/pkg/types"
)

// Query parameter names.
const (
	paramGroupFilter     = "filters[group_id]"
	paramHiddenFields    = "fmt_options[hidden_fields]"
	paramHiddenFacets    = "fmt_options[hidden_facets]"
	paramGroupsSortBy    = "fmt_options[groups_sort_by]"
	paramGroupsSortOrder = "fmt_options[groups_sort_order]"
	paramVariationsMap   = "variations_map"
	paramPage            = "page"
	paramPerPage         = "num_results_per_page"
	paramSortBy          = "sort_by"
	paramSortOrder       = "sort_order"
	paramSection         = "section"
	paramItemID          = "item_id"
	paramTerm            = "term"
	paramNumResults      = "num_results"
)

func facetParam(name string) string {
	return "filters[" + name + "]"
}

// addFilters appends every group_id value first, then the remaining filters
// in order. Each value becomes its own pair.
func addFilters(p *query.Params, filters Filters) {
	for _, f := range filters {
		if f.Name == GroupIDFilter {
			p.AddAll(paramGroupFilter, f.Values)
		}
	}
	for _, f := range filters {
		if f.Name != GroupIDFilter {
			p.AddAll(facetParam(f.Name), f.Values)
		}
	}
}

func addPositive(p *query.Params, key string, v int) {
	if v > 0 {
		p.Add(key, strconv.Itoa(v))
	}
}

func addVariationsMap(p *query.Params, vm *domain.VariationsMap) error {
	s, err := vm.Encode()
	if err != nil {
		return err
	}
	p.AddIfSet(paramVariationsMap, s)
	return nil
}

// listingParams holds the options shared by search and browse.
type listingParams struct {
	filters         Filters
	page            int
	perPage         int
	sortBy          string
	sortOrder       SortOrder
	section         string
	hiddenFields    []string
	hiddenFacets    []string
	groupsSortBy    string
	groupsSortOrder SortOrder
	variationsMap   *domain.VariationsMap
}

func (l listingParams) encode() (query.Params, error) {
	var p query.Params
	addFilters(&p, l.filters)
	addPositive(&p, paramPage, l.page)
	addPositive(&p, paramPerPage, l.perPage)
	p.AddIfSet(paramSortBy, l.sortBy)
	p.AddIfSet(paramSortOrder, string(l.sortOrder))
	p.AddIfSet(paramSection, l.section)
	p.AddAll(paramHiddenFields, l.hiddenFields)
	p.AddAll(paramHiddenFacets, l.hiddenFacets)
	p.AddIfSet(paramGroupsSortBy, l.groupsSortBy)
	p.AddIfSet(paramGroupsSortOrder, string(l.groupsSortOrder))
	if err := addVariationsMap(&p, l.variationsMap); err != nil {
		return nil, err
	}
	return p, nil
}

// autocompleteParams encodes: group filters, facet filters, per-section
// result counts sorted by section, hidden fields, variations map.
func autocompleteParams(req AutocompleteRequest, defaultCounts map[string]int) (query.Params, error) {
	var p query.Params
	addFilters(&p, req.Filters)

	counts := req.NumResultsPerSection
	if counts == nil {
		counts = defaultCounts
	}
	sections := make([]string, 0, len(counts))
	for s := range counts {
		sections = append(sections, s)
	}
	slices.Sort(sections)
	for _, s := range sections {
		p.Add("num_results_"+s, strconv.Itoa(counts[s]))
	}

	p.AddAll(paramHiddenFields, req.HiddenFields)
	if err := addVariationsMap(&p, req.VariationsMap); err != nil {
		return nil, err
	}
	return p, nil
}

// searchParams encodes: group filters, facet filters, page, per page, sort
// by, sort order, section, hidden fields, hidden facets, groups sort by,
// groups sort order, variations map.
func searchParams(req SearchRequest) (query.Params, error) {
	return listingParams{
		filters:         req.Filters,
		page:            req.Page,
		perPage:         req.PerPage,
		sortBy:          req.SortBy,
		sortOrder:       req.SortOrder,
		section:         req.Section,
		hiddenFields:    req.HiddenFields,
		hiddenFacets:    req.HiddenFacets,
		groupsSortBy:    req.GroupsSortBy,
		groupsSortOrder: req.GroupsSortOrder,
		variationsMap:   req.VariationsMap,
	}.encode()
}

// browseParams uses the search order.
func browseParams(req BrowseRequest) (query.Params, error) {
	return listingParams{
		filters:         req.Filters,
		page:            req.Page,
		perPage:         req.PerPage,
		sortBy:          req.SortBy,
		sortOrder:       req.SortOrder,
		section:         req.Section,
		hiddenFields:    req.HiddenFields,
		hiddenFacets:    req.HiddenFacets,
		groupsSortBy:    req.GroupsSortBy,
		groupsSortOrder: req.GroupsSortOrder,
		variationsMap:   req.VariationsMap,
	}.encode()
}

// recommendationsParams encodes: filters (group_id is not special here),
// item ids, term, num results, section.
func recommendationsParams(req RecommendationsRequest) query.Params {
	var p query.Params
	for _, f := range req.Filters {
		p.AddAll(facetParam(f.Name), f.Values)
	}
	p.AddAll(paramItemID, req.ItemIDs)
	p.AddIfSet(paramTerm, req.Term)
	addPositive(&p, paramNumResults, req.NumResults)
	p.AddIfSet(paramSection, req.Section)
	return p
}

func validSortOrder(o SortOrder) error {
	switch o {
	case "", SortAscending, SortDescending:
		return nil
	default:
		return fmt.Errorf("sort order %q: want %q or %q", o, SortAscending, SortDescending)
	}
}
