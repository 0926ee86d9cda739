package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/constructorio-go/internal/api"
	"github.com/donaldgifford/constructorio-go/internal/api/handlers"
	"github.com/donaldgifford/constructorio-go/internal/remote"
	"github.com/donaldgifford/constructorio-go/pkg/constructorio"
)

func TestRoutePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ep   remote.Endpoint
		want string
	}{
		{ep: remote.Autocomplete, want: "/autocomplete/:term"},
		{ep: remote.Browse, want: "/browse/:filter_name/:filter_value"},
		{ep: remote.Recommendations, want: "/recommendations/v1/pods/:pod_id"},
		{ep: remote.SearchResultClick, want: "/autocomplete/:term/click_through"},
		{ep: remote.Behavior, want: "/behavior"},
		{ep: remote.Purchase, want: "/v2/behavioral_action/purchase"},
	}

	for _, tt := range tests {
		t.Run(tt.ep.Name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, api.RoutePath(tt.ep))
		})
	}
}

type mockServer struct {
	url      *url.URL
	recorder *handlers.Recorder
}

func startMock(t *testing.T, apiKey string) *mockServer {
	t.Helper()
	catalog, err := handlers.DefaultCatalog()
	require.NoError(t, err)

	recorder := handlers.NewRecorder(0)
	srv := httptest.NewServer(api.NewServer(api.Options{
		Catalog:  catalog,
		Recorder: recorder,
		APIKey:   apiKey,
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return &mockServer{url: u, recorder: recorder}
}

func (m *mockServer) client(t *testing.T, apiKey string) *constructorio.Client {
	t.Helper()
	c, err := constructorio.New(context.Background(), constructorio.Config{
		APIKey:        apiKey,
		ServiceURL:    m.url.Host,
		ServiceScheme: "http",
	}, constructorio.WithBeaconWorkers(1))
	require.NoError(t, err)
	return c
}

func (m *mockServer) get(t *testing.T, path string) string {
	t.Helper()
	resp, err := http.Get(m.url.String() + path) //nolint:noctx // test helper
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestServer_ContentThroughClient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mock := startMock(t, "key_123")
	client := mock.client(t, "key_123")
	t.Cleanup(func() { _ = client.Close(ctx) }) //nolint:errcheck // best-effort drain

	search := client.Search(ctx, constructorio.SearchRequest{
		Term:    "corn",
		Filters: constructorio.Filters{{Name: "brand", Values: []string{"Signature Farms"}}},
		PerPage: 1,
	})
	require.NoError(t, search.Err)
	assert.NotEmpty(t, search.ResultID)
	assert.Equal(t, 2, search.Value.Response.TotalNumResults)
	require.Len(t, search.Value.Response.Results, 1)
	assert.Equal(t, "prod-203", search.Value.Response.Results[0].Data.ID)
	assert.InDelta(t, 0.99, search.Value.Response.Results[0].Data.Metadata["price"], 0.0001)

	ac := client.Autocomplete(ctx, constructorio.AutocompleteRequest{
		Term:                 "del monte",
		NumResultsPerSection: map[string]int{"Search Suggestions": 1},
	})
	require.NoError(t, ac.Err)
	require.Len(t, ac.Value.Section("Search Suggestions"), 1)
	assert.Equal(t, "Del Monte Corn", ac.Value.Section("Search Suggestions")[0].Value)
	assert.Len(t, ac.Value.Section("Products"), 2)

	browse := client.Browse(ctx, constructorio.BrowseRequest{
		FilterName:  constructorio.GroupIDFilter,
		FilterValue: "431",
		SortBy:      "price",
		SortOrder:   constructorio.SortAscending,
	})
	require.NoError(t, browse.Err)
	require.Len(t, browse.Value.Response.Results, 3)
	assert.Equal(t, "prod-103", browse.Value.Response.Results[0].Data.ID)

	recs := client.Recommendations(ctx, constructorio.RecommendationsRequest{
		PodID:      "product_detail_page",
		ItemIDs:    []string{"prod-201"},
		NumResults: 2,
	})
	require.NoError(t, recs.Err)
	require.Len(t, recs.Value.Response.Results, 2)
	assert.Equal(t, "prod-202", recs.Value.Response.Results[0].Data.ID)

	redirect := client.Search(ctx, constructorio.SearchRequest{Term: "shoes"})
	require.NoError(t, redirect.Err)
	require.NotNil(t, redirect.Value.Response.Redirect)
	assert.Equal(t, "/mens-shoes", redirect.Value.Response.Redirect.Data.URL)
}

func TestServer_RejectsWrongKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mock := startMock(t, "key_123")
	client := mock.client(t, "key_other")
	t.Cleanup(func() { _ = client.Close(ctx) }) //nolint:errcheck // best-effort drain

	res := client.Search(ctx, constructorio.SearchRequest{Term: "corn"})
	require.True(t, res.IsError())
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode())
	assert.ErrorIs(t, res.Err, constructorio.ErrServer)
}

func TestServer_RecordsTracking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mock := startMock(t, "")
	client := mock.client(t, "key_123")

	client.TrackInputFocus(ctx, "co")
	client.TrackConversion(ctx, constructorio.Conversion{SearchTerm: "corn", ItemID: "prod-201"})
	require.NoError(t, client.Close(ctx))

	var actions []string
	for _, b := range mock.recorder.Beacons("behavior") {
		actions = append(actions, b.Action)
	}
	assert.Equal(t, []string{"session_start", "focus"}, actions)

	conversions := mock.recorder.Beacons("conversion")
	require.Len(t, conversions, 1)
	body := conversions[0].Body
	assert.Equal(t, "prod-201", body["item_id"])
	assert.Equal(t, "corn", body["search_term"])
	assert.Equal(t, "key_123", body["key"])
	assert.Equal(t, client.ClientID(), body["i"])

	var listed []handlers.RecordedBeacon
	require.NoError(t, json.Unmarshal([]byte(mock.get(t, "/_mock/events?endpoint=conversion")), &listed))
	assert.Len(t, listed, 1)
}

func TestServer_OperationalRoutes(t *testing.T) {
	t.Parallel()

	mock := startMock(t, "")

	assert.Contains(t, mock.get(t, "/healthz"), `"status":"ok"`)

	_ = mock.get(t, "/search/corn?key=k")
	metrics := mock.get(t, "/metrics")
	assert.Contains(t, metrics, `cio_mock_http_requests_total{method="GET",path="/search/:term",status="200"}`)
}
