package constructorio

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/constructorio-go/pkg/types"
)

func TestAutocompleteParams(t *testing.T) {
	t.Parallel()

	vm := &domain.VariationsMap{
		DType:  domain.DTypeArray,
		Values: map[string]domain.VariationsMapValue{"size": {Aggregation: "all", Field: "data.size"}},
	}

	tests := []struct {
		name     string
		req      AutocompleteRequest
		defaults map[string]int
		want     []string
	}{
		{
			name: "empty",
			req:  AutocompleteRequest{Term: "co"},
			want: []string{},
		},
		{
			name: "group filters lead even when listed last",
			req: AutocompleteRequest{
				Term: "co",
				Filters: Filters{
					{Name: "Brand", Values: []string{"A", "B"}},
					Group("1"),
					Group("2"),
				},
			},
			want: []string{"filters[group_id]", "filters[group_id]", "filters[Brand]", "filters[Brand]"},
		},
		{
			name:     "default counts sorted by section",
			req:      AutocompleteRequest{Term: "co"},
			defaults: map[string]int{"Search Suggestions": 5, "Products": 3},
			want:     []string{"num_results_Products", "num_results_Search Suggestions"},
		},
		{
			name: "all options",
			req: AutocompleteRequest{
				Term:                 "co",
				Filters:              Filters{{Name: "Brand", Values: []string{"A"}}, Group("1")},
				NumResultsPerSection: map[string]int{"Products": 2},
				HiddenFields:         []string{"price_CA", "price_US"},
				VariationsMap:        vm,
			},
			defaults: map[string]int{"Search Suggestions": 5},
			want: []string{
				"filters[group_id]", "filters[Brand]", "num_results_Products",
				"fmt_options[hidden_fields]", "fmt_options[hidden_fields]", "variations_map",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := autocompleteParams(tt.req, tt.defaults)
			require.NoError(t, err)
			got := p.Keys()
			if got == nil {
				got = []string{}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("keys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchParams_FullOrder(t *testing.T) {
	t.Parallel()

	p, err := searchParams(SearchRequest{
		Term:            "corn",
		Filters:         Filters{{Name: "Brand", Values: []string{"Del Monte"}}, Group("431")},
		Page:            2,
		PerPage:         10,
		SortBy:          "price",
		SortOrder:       SortDescending,
		Section:         "Products",
		HiddenFields:    []string{"f"},
		HiddenFacets:    []string{"g"},
		GroupsSortBy:    "count",
		GroupsSortOrder: SortAscending,
		VariationsMap:   &domain.VariationsMap{DType: domain.DTypeObject},
	})
	require.NoError(t, err)

	want := []string{
		"filters[group_id]", "filters[Brand]", "page", "num_results_per_page", "sort_by", "sort_order",
		"section", "fmt_options[hidden_fields]", "fmt_options[hidden_facets]",
		"fmt_options[groups_sort_by]", "fmt_options[groups_sort_order]", "variations_map",
	}
	if diff := cmp.Diff(want, p.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{`{"dtype":"object","values":null}`}, p.Values("variations_map"))
}

func TestBrowseParams_MatchesSearchOrder(t *testing.T) {
	t.Parallel()

	s, err := searchParams(SearchRequest{Term: "x", Page: 1, SortBy: "price", HiddenFacets: []string{"a"}})
	require.NoError(t, err)
	b, err := browseParams(BrowseRequest{
		FilterName: "group_id", FilterValue: "1", Page: 1, SortBy: "price", HiddenFacets: []string{"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, s.Encode(), b.Encode())
}

func TestRecommendationsParams(t *testing.T) {
	t.Parallel()

	p := recommendationsParams(RecommendationsRequest{
		PodID:      "pdp",
		Filters:    Filters{{Name: "Brand", Values: []string{"A"}}, Group("1")},
		ItemIDs:    []string{"i1", "i2"},
		Term:       "milk",
		NumResults: 3,
		Section:    "Products",
	})

	want := []string{"filters[Brand]", "filters[group_id]", "item_id", "item_id", "term", "num_results", "section"}
	if diff := cmp.Diff(want, p.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestFiltersFromMap(t *testing.T) {
	t.Parallel()

	got := FiltersFromMap(map[string][]string{
		"Nutrition": {"Organic"},
		"Brand":     {"A", "B"},
	})
	assert.Equal(t, Filters{
		{Name: "Brand", Values: []string{"A", "B"}},
		{Name: "Nutrition", Values: []string{"Organic"}},
	}, got)
	assert.Nil(t, FiltersFromMap(nil))
}

func TestValidSortOrder(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validSortOrder(""))
	assert.NoError(t, validSortOrder(SortAscending))
	assert.NoError(t, validSortOrder(SortDescending))
	assert.Error(t, validSortOrder("asc"))
}
