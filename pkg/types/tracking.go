package domain

// Beacon holds the identity fields carried by every behavioral POST body.
// It is embedded in each tracking body so that its fields are flattened.
type Beacon struct {
	Version   string   `json:"c"`
	ClientID  string   `json:"i"`
	SessionID int      `json:"s"`
	APIKey    string   `json:"key"`
	UserID    string   `json:"ui,omitempty"`
	Segments  []string `json:"us,omitempty"`
	IsBeacon  bool     `json:"beacon"`
	Section   string   `json:"section,omitempty"`
	Timestamp int64    `json:"_dt"`
}

// SetBeacon replaces the embedded beacon fields.
func (b *Beacon) SetBeacon(v Beacon) { *b = v }

// Beaconer is implemented by every tracking body.
type Beaconer interface {
	SetBeacon(Beacon)
}

// ConversionBody is posted when an item is added to cart or otherwise
// converted.
type ConversionBody struct {
	Beacon
	SearchTerm string `json:"search_term"`
	ItemID     string `json:"item_id"`
	ItemName   string `json:"item_name,omitempty"`
	Revenue    string `json:"revenue,omitempty"`
	Type       string `json:"type,omitempty"`
}

// PurchaseItem identifies one purchased item.
type PurchaseItem struct {
	ItemID      string `json:"item_id"`
	VariationID string `json:"variation_id,omitempty"`
}

// PurchaseBody is posted when an order completes.
type PurchaseBody struct {
	Beacon
	Items   []PurchaseItem `json:"items"`
	OrderID string         `json:"order_id"`
	Revenue *float64       `json:"revenue,omitempty"`
}

// BrowseResultLoadBody is posted when a browse page renders.
type BrowseResultLoadBody struct {
	Beacon
	FilterName  string `json:"filter_name"`
	FilterValue string `json:"filter_value"`
	ResultCount int    `json:"result_count"`
	URL         string `json:"url"`
}

// BrowseResultClickBody is posted when a browse result is clicked.
type BrowseResultClickBody struct {
	Beacon
	FilterName           string `json:"filter_name"`
	FilterValue          string `json:"filter_value"`
	ItemID               string `json:"item_id"`
	ResultPositionOnPage *int   `json:"result_position_on_page,omitempty"`
}

// RecommendationResultClickBody is posted when a recommended item is clicked.
type RecommendationResultClickBody struct {
	Beacon
	PodID                string `json:"pod_id"`
	StrategyID           string `json:"strategy_id,omitempty"`
	ItemID               string `json:"item_id"`
	VariationID          string `json:"variation_id,omitempty"`
	ResultID             string `json:"result_id,omitempty"`
	NumResultsPerPage    *int   `json:"num_results_per_page,omitempty"`
	ResultPage           *int   `json:"result_page,omitempty"`
	ResultCount          *int   `json:"result_count,omitempty"`
	ResultPositionOnPage *int   `json:"result_position_on_page,omitempty"`
}

// RecommendationResultViewBody is posted when a recommendation pod is shown.
type RecommendationResultViewBody struct {
	Beacon
	PodID            string `json:"pod_id"`
	NumResultsViewed int    `json:"num_results_viewed"`
	ResultPage       *int   `json:"result_page,omitempty"`
	ResultCount      *int   `json:"result_count,omitempty"`
	ResultID         string `json:"result_id,omitempty"`
	URL              string `json:"url"`
}
