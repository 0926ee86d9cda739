package domain_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/constructorio-go/pkg/types"
)

func loadFixture(t *testing.T, name string, v any) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestAutocompleteResponse_Decode(t *testing.T) {
	t.Parallel()

	var resp domain.AutocompleteResponse
	loadFixture(t, "autocomplete.json", &resp)

	assert.Equal(t, "autocomplete-result-1", resp.ResultID)
	assert.Equal(t, []string{"Products", "Search Suggestions"}, resp.SectionNames())

	suggestions := resp.Section("Search Suggestions")
	require.Len(t, suggestions, 2)
	assert.Equal(t, "Dannon", suggestions[0].Value)
	require.Len(t, suggestions[0].Data.Groups, 1)
	assert.Equal(t, "431", suggestions[0].Data.Groups[0].GroupID)
	assert.Equal(t, "Yogurt", suggestions[0].Data.Groups[0].DisplayName)

	products := resp.Section("Products")
	require.Len(t, products, 1)
	assert.Equal(t, "prod-123", products[0].Data.ID)
	assert.Equal(t, "Dannon", products[0].Data.Metadata["brand"])
	assert.InDelta(t, 4.99, products[0].Data.Metadata["price"], 0.0001)
	assert.NotContains(t, products[0].Data.Metadata, "id")

	assert.Nil(t, resp.Section("Missing"))
}

func TestAutocompleteResponse_NilReceiver(t *testing.T) {
	t.Parallel()

	var resp *domain.AutocompleteResponse
	assert.Nil(t, resp.Section("Products"))
	assert.Nil(t, resp.SectionNames())
}

func TestSearchResponse_Decode(t *testing.T) {
	t.Parallel()

	var resp domain.SearchResponse
	loadFixture(t, "search.json", &resp)

	require.NotNil(t, resp.Response)
	data := resp.Response
	assert.Equal(t, "search-result-1", resp.ResultID)
	assert.Equal(t, 19, data.TotalNumResults)
	assert.Nil(t, data.Redirect)

	require.Len(t, data.Results, 2)
	first := data.Results[0]
	assert.Equal(t, "item-1-v1", first.Data.VariationID)
	assert.True(t, first.IsSlotted)
	assert.Equal(t, map[string]any{"sku": "DM-0001"}, first.Data.Metadata)
	require.Len(t, first.Variations, 1)
	assert.Equal(t, "15.25 oz", first.Variations[0].Value)
	assert.Nil(t, data.Results[1].Data.Metadata)

	require.Len(t, data.Facets, 2)
	assert.Equal(t, "multiple", data.Facets[0].Type)
	require.Len(t, data.Facets[0].Options, 2)
	assert.Equal(t, 12, data.Facets[0].Options[0].Count)
	assert.Equal(t, "selected", data.Facets[0].Options[0].Status)
	require.NotNil(t, data.Facets[1].Min)
	assert.InDelta(t, 0.99, *data.Facets[1].Min, 0.0001)

	require.Len(t, data.Groups, 1)
	require.NotNil(t, data.Groups[0].Count)
	assert.Equal(t, 19, *data.Groups[0].Count)
	assert.Equal(t, "Canned Vegetables", data.Groups[0].Children[0].DisplayName)

	require.Len(t, data.SortOptions, 2)
	assert.Equal(t, "price", data.SortOptions[1].SortBy)
	assert.Equal(t, "ascending", data.SortOptions[1].SortOrder)
}

func TestSearchResponse_Redirect(t *testing.T) {
	t.Parallel()

	var resp domain.SearchResponse
	loadFixture(t, "search_redirect.json", &resp)

	require.NotNil(t, resp.Response.Redirect)
	r := resp.Response.Redirect
	assert.Equal(t, "/mens-shoes", r.Data.URL)
	require.NotNil(t, r.Data.RuleID)
	assert.Equal(t, 8860, *r.Data.RuleID)
	assert.Equal(t, []string{"shoes"}, r.MatchedTerms)
	assert.Empty(t, resp.Response.Results)
}

func TestRecommendationsResponse_Decode(t *testing.T) {
	t.Parallel()

	var resp domain.RecommendationsResponse
	loadFixture(t, "recommendations.json", &resp)

	require.NotNil(t, resp.Response)
	require.NotNil(t, resp.Response.Pod)
	assert.Equal(t, "product_detail_page", resp.Response.Pod.ID)
	assert.Equal(t, "Customers also viewed", resp.Response.Pod.DisplayName)
	assert.Equal(t, 2, resp.Response.TotalNumResults)
	require.Len(t, resp.Response.Results, 2)
	require.NotNil(t, resp.Response.Results[0].Strategy)
	assert.Equal(t, "alternative_items", resp.Response.Results[0].Strategy.ID)
}

func TestResultData_RejectsMalformed(t *testing.T) {
	t.Parallel()

	var d domain.ResultData
	assert.Error(t, json.Unmarshal([]byte(`{"id": 5}`), &d))
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &d))
}

func TestResultData_MarshalKeepsMetadata(t *testing.T) {
	t.Parallel()

	in := domain.ResultData{
		ID:       "prod-1",
		URL:      "/p/1",
		Metadata: map[string]any{"price": 2.5, "id": "ignored"},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out domain.ResultData
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "prod-1", out.ID)
	assert.Equal(t, "/p/1", out.URL)
	assert.Equal(t, map[string]any{"price": 2.5}, out.Metadata)
}

func TestTrackingBodies_FlattenBeacon(t *testing.T) {
	t.Parallel()

	revenue := 12.5
	body := domain.PurchaseBody{
		Items:   []domain.PurchaseItem{{ItemID: "a"}, {ItemID: "b"}},
		OrderID: "order-1",
		Revenue: &revenue,
	}
	body.SetBeacon(domain.Beacon{
		Version:   "ciogo-1.0.0",
		ClientID:  "guid",
		SessionID: 3,
		APIKey:    "key_123",
		Segments:  []string{"mobile"},
		IsBeacon:  true,
		Section:   "Products",
		Timestamp: 1700000000000,
	})

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "ciogo-1.0.0", got["c"])
	assert.Equal(t, "guid", got["i"])
	assert.InDelta(t, 3, got["s"], 0)
	assert.Equal(t, "key_123", got["key"])
	assert.Equal(t, true, got["beacon"])
	assert.Equal(t, "Products", got["section"])
	assert.Equal(t, "order-1", got["order_id"])
	assert.InDelta(t, 12.5, got["revenue"], 0)
	assert.NotContains(t, got, "ui")
	assert.Len(t, got["items"], 2)
}

func TestConversionBody_OmitsEmptyRevenue(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(domain.ConversionBody{SearchTerm: "corn", ItemID: "1"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "revenue")
	assert.Contains(t, string(raw), `"search_term":"corn"`)
}

func TestVariationsMap_Encode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vm   *domain.VariationsMap
		want string
	}{
		{
			name: "nil map encodes empty",
			vm:   nil,
			want: "",
		},
		{
			name: "group by and values",
			vm: &domain.VariationsMap{
				DType:   domain.DTypeArray,
				GroupBy: []domain.GroupByEntry{{Name: "variation", Field: "data.variation_id"}},
				Values: map[string]domain.VariationsMapValue{
					"size": {Aggregation: "all", Field: "data.facets.size"},
				},
			},
			want: `{"dtype":"array","group_by":[{"name":"variation","field":"data.variation_id"}],"values":{"size":{"aggregation":"all","field":"data.facets.size"}}}`,
		},
		{
			name: "values sorted with filter",
			vm: &domain.VariationsMap{
				DType: domain.DTypeObject,
				Values: map[string]domain.VariationsMapValue{
					"z": {Aggregation: "first", Field: "data.z"},
					"a": {Aggregation: "min", Field: "data.a"},
				},
				FilterBy: json.RawMessage(`{"field":"data.color","value":"red"}`),
			},
			want: `{"dtype":"object","values":{"a":{"aggregation":"min","field":"data.a"},"z":{"aggregation":"first","field":"data.z"}},"filter_by":{"field":"data.color","value":"red"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.vm.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
