// Package domain defines the response models returned by the search,
// browse, autocomplete and recommendations endpoints.
package domain

import (
	"encoding/json"
	"slices"
)

// AutocompleteResponse is the body returned by the autocomplete endpoint.
// Sections maps a section name (e.g. "Search Suggestions", "Products") to
// its results.
type AutocompleteResponse struct {
	Sections map[string][]Result `json:"sections"`
	ResultID string              `json:"result_id,omitempty"`
	Request  map[string]any      `json:"request,omitempty"`
}

// Section returns the results of the named section, or nil.
func (r *AutocompleteResponse) Section(name string) []Result {
	if r == nil {
		return nil
	}
	return r.Sections[name]
}

// SectionNames returns the section names in sorted order.
func (r *AutocompleteResponse) SectionNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Sections))
	for name := range r.Sections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SearchResponse is the body returned by the search endpoint.
type SearchResponse struct {
	Response *SearchData    `json:"response"`
	ResultID string         `json:"result_id,omitempty"`
	Request  map[string]any `json:"request,omitempty"`
}

// SearchData is the "response" object of a search or browse response.
type SearchData struct {
	Results         []Result           `json:"results"`
	Facets          []FilterFacet      `json:"facets"`
	Groups          []FilterGroup      `json:"groups"`
	SortOptions     []FilterSortOption `json:"sort_options"`
	TotalNumResults int                `json:"total_num_results"`
	Redirect        *Redirect          `json:"redirect,omitempty"`
}

// BrowseResponse is the body returned by the browse endpoint. It shares the
// search response shape.
type BrowseResponse struct {
	Response *SearchData    `json:"response"`
	ResultID string         `json:"result_id,omitempty"`
	Request  map[string]any `json:"request,omitempty"`
}

// RecommendationsResponse is the body returned by the recommendations
// endpoint.
type RecommendationsResponse struct {
	Response *RecommendationsData `json:"response"`
	ResultID string               `json:"result_id,omitempty"`
	Request  map[string]any       `json:"request,omitempty"`
}

// RecommendationsData is the "response" object of a recommendations response.
type RecommendationsData struct {
	Pod             *Pod     `json:"pod"`
	Results         []Result `json:"results"`
	TotalNumResults int      `json:"total_num_results"`
}

// Pod identifies a recommendation slot.
type Pod struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Result is a single item returned in any result list.
type Result struct {
	Value        string         `json:"value"`
	Data         ResultData     `json:"data"`
	MatchedTerms []string       `json:"matched_terms,omitempty"`
	Variations   []Variation    `json:"variations,omitempty"`
	IsSlotted    bool           `json:"is_slotted,omitempty"`
	Labels       map[string]any `json:"labels,omitempty"`
	Strategy     *Strategy      `json:"strategy,omitempty"`
}

// ResultData holds the item attributes of a result.
type ResultData struct {
	ID          string         `json:"id"`
	URL         string         `json:"url,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	Description string         `json:"description,omitempty"`
	VariationID string         `json:"variation_id,omitempty"`
	Facets      []ResultFacet  `json:"facets,omitempty"`
	Groups      []ResultGroup  `json:"groups,omitempty"`
	Metadata    map[string]any `json:"-"`
}

// resultDataKnown lists the keys decoded into named ResultData fields.
var resultDataKnown = []string{
	"id", "url", "image_url", "description", "variation_id", "facets", "groups",
}

// UnmarshalJSON decodes the named fields and collects every other key into
// Metadata, since result data carries arbitrary customer attributes.
func (d *ResultData) UnmarshalJSON(b []byte) error {
	type plain ResultData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range resultDataKnown {
		delete(all, k)
	}
	if len(all) > 0 {
		p.Metadata = all
	}

	*d = ResultData(p)
	return nil
}

// MarshalJSON writes Metadata back alongside the named fields. Named fields
// win when a metadata key collides with one of them.
func (d ResultData) MarshalJSON() ([]byte, error) {
	type plain ResultData
	b, err := json.Marshal(plain(d))
	if err != nil || len(d.Metadata) == 0 {
		return b, err
	}

	all := make(map[string]any, len(d.Metadata)+len(resultDataKnown))
	for k, v := range d.Metadata {
		all[k] = v
	}
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	return json.Marshal(all)
}

// Variation is a product variation attached to a result.
type Variation struct {
	Value string         `json:"value"`
	Data  map[string]any `json:"data"`
}

// Strategy identifies the recommendation strategy that produced a result.
type Strategy struct {
	ID string `json:"id"`
}

// ResultFacet is a facet value attached to a single result.
type ResultFacet struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// ResultGroup is a group (category) a result or autocomplete suggestion
// belongs to.
type ResultGroup struct {
	GroupID     string `json:"group_id"`
	DisplayName string `json:"display_name"`
	Path        string `json:"path,omitempty"`
}

// FilterFacet is a facet available for refining results.
type FilterFacet struct {
	DisplayName string              `json:"display_name"`
	Name        string              `json:"name"`
	Type        string              `json:"type"`
	Status      map[string]any      `json:"status,omitempty"`
	Min         *float64            `json:"min,omitempty"`
	Max         *float64            `json:"max,omitempty"`
	Options     []FilterFacetOption `json:"options,omitempty"`
	Hidden      bool                `json:"hidden,omitempty"`
}

// FilterFacetOption is a single selectable facet value.
type FilterFacetOption struct {
	Count       int    `json:"count"`
	DisplayName string `json:"display_name,omitempty"`
	Status      string `json:"status,omitempty"`
	Value       string `json:"value,omitempty"`
}

// FilterGroup is a group filter available for a response.
type FilterGroup struct {
	Children    []FilterGroup `json:"children,omitempty"`
	Parents     []FilterGroup `json:"parents,omitempty"`
	Count       *int          `json:"count,omitempty"`
	DisplayName string        `json:"display_name"`
	GroupID     string        `json:"group_id"`
}

// FilterSortOption is a sort option available for a response.
type FilterSortOption struct {
	DisplayName string `json:"display_name"`
	SortBy      string `json:"sort_by"`
	SortOrder   string `json:"sort_order"`
	Status      string `json:"status,omitempty"`
}

// Redirect is returned instead of results when a search term matches a
// redirect rule.
type Redirect struct {
	Data                RedirectData `json:"data"`
	MatchedTerms        []string     `json:"matched_terms,omitempty"`
	MatchedUserSegments []string     `json:"matched_user_segments,omitempty"`
}

// RedirectData holds search redirect metadata.
type RedirectData struct {
	URL     string `json:"url"`
	RuleID  *int   `json:"rule_id,omitempty"`
	MatchID *int   `json:"match_id,omitempty"`
}
