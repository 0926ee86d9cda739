package remote

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/donaldgifford/constructorio-go/internal/query"
)

// Endpoint is one entry of the fixed REST surface. Template holds the path
// with {placeholder} segments that are filled in order by Path.
type Endpoint struct {
	Name     string
	Method   string
	Template string
}

// Content endpoints.
var (
	Autocomplete    = Endpoint{Name: "autocomplete", Method: http.MethodGet, Template: "autocomplete/{term}"}
	Search          = Endpoint{Name: "search", Method: http.MethodGet, Template: "search/{term}"}
	Browse          = Endpoint{Name: "browse", Method: http.MethodGet, Template: "browse/{filter_name}/{filter_value}"}
	Recommendations = Endpoint{Name: "recommendations", Method: http.MethodGet, Template: "recommendations/v1/pods/{pod_id}"}
)

// Tracking endpoints.
var (
	AutocompleteSelect = Endpoint{Name: "autocomplete_select", Method: http.MethodGet, Template: "autocomplete/{term}/select"}
	SearchSubmit       = Endpoint{Name: "search_submit", Method: http.MethodGet, Template: "autocomplete/{term}/search"}
	Behavior           = Endpoint{Name: "behavior", Method: http.MethodGet, Template: "behavior"}
	SearchResultClick  = Endpoint{Name: "search_result_click", Method: http.MethodGet, Template: "autocomplete/{term}/click_through"}

	Conversion                = Endpoint{Name: "conversion", Method: http.MethodPost, Template: "v2/behavioral_action/conversion"}
	Purchase                  = Endpoint{Name: "purchase", Method: http.MethodPost, Template: "v2/behavioral_action/purchase"}
	BrowseResultLoad          = Endpoint{Name: "browse_result_load", Method: http.MethodPost, Template: "v2/behavioral_action/browse_result_load"}
	BrowseResultClick         = Endpoint{Name: "browse_result_click", Method: http.MethodPost, Template: "v2/behavioral_action/browse_result_click"}
	RecommendationResultClick = Endpoint{Name: "recommendation_result_click", Method: http.MethodPost, Template: "v2/behavioral_action/recommendation_result_click"}
	RecommendationResultView  = Endpoint{Name: "recommendation_result_view", Method: http.MethodPost, Template: "v2/behavioral_action/recommendation_result_view"}
)

// Endpoints lists every endpoint, content first.
var Endpoints = []Endpoint{
	Autocomplete, Search, Browse, Recommendations,
	AutocompleteSelect, SearchSubmit, Behavior, SearchResultClick,
	Conversion, Purchase, BrowseResultLoad, BrowseResultClick,
	RecommendationResultClick, RecommendationResultView,
}

// Path fills the template placeholders with args, escaping each one as a
// single path segment. It fails when the argument count does not match.
func (e Endpoint) Path(args ...string) (string, error) {
	segments := strings.Split(e.Template, "/")
	n := 0
	for i, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		if n >= len(args) {
			return "", fmt.Errorf("%s: missing value for %s", e.Name, seg)
		}
		if args[n] == "" {
			return "", fmt.Errorf("%s: empty value for %s", e.Name, seg)
		}
		segments[i] = query.Escape(args[n])
		n++
	}
	if n != len(args) {
		return "", fmt.Errorf("%s: %d path values given, template takes %d", e.Name, len(args), n)
	}
	return strings.Join(segments, "/"), nil
}
