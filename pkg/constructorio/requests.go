package constructorio

import (
	"slices"

	domain "github.com/donaldgifford/constructorio-go/pkg/types"
)

// SortOrder is the direction of a sort.
type SortOrder string

// Sort directions.
const (
	SortAscending  SortOrder = "ascending"
	SortDescending SortOrder = "descending"
)

// GroupIDFilter is the filter name that selects a group (category) rather
// than a facet.
const GroupIDFilter = "group_id"

// Filter narrows results to items whose facet Name has any of Values.
type Filter struct {
	Name   string
	Values []string
}

// Filters is an ordered list of filters. Order is preserved on the wire.
type Filters []Filter

// FiltersFromMap converts a map to Filters sorted by name, giving a stable
// query string for map input.
func FiltersFromMap(m map[string][]string) Filters {
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make(Filters, 0, len(names))
	for _, name := range names {
		out = append(out, Filter{Name: name, Values: m[name]})
	}
	return out
}

// Group returns a filter selecting the group with the given id.
func Group(id string) Filter {
	return Filter{Name: GroupIDFilter, Values: []string{id}}
}

// AutocompleteRequest configures an autocomplete call.
type AutocompleteRequest struct {
	Term    string
	Filters Filters
	// NumResultsPerSection overrides Config.AutocompleteResultCount.
	NumResultsPerSection map[string]int
	HiddenFields         []string
	VariationsMap        *domain.VariationsMap
}

// SearchRequest configures a search call.
type SearchRequest struct {
	Term            string
	Filters         Filters
	Page            int
	PerPage         int
	SortBy          string
	SortOrder       SortOrder
	Section         string
	HiddenFields    []string
	HiddenFacets    []string
	GroupsSortBy    string
	GroupsSortOrder SortOrder
	VariationsMap   *domain.VariationsMap
}

// BrowseRequest configures a browse call. FilterName and FilterValue select
// the browse page, e.g. "group_id" and "431".
type BrowseRequest struct {
	FilterName      string
	FilterValue     string
	Filters         Filters
	Page            int
	PerPage         int
	SortBy          string
	SortOrder       SortOrder
	Section         string
	HiddenFields    []string
	HiddenFacets    []string
	GroupsSortBy    string
	GroupsSortOrder SortOrder
	VariationsMap   *domain.VariationsMap
}

// RecommendationsRequest configures a recommendations call for one pod.
type RecommendationsRequest struct {
	PodID      string
	Filters    Filters
	ItemIDs    []string
	Term       string
	NumResults int
	Section    string
}
