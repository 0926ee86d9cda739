package domain

import (
	"encoding/json"
	"fmt"
)

// VariationsDType is the data type the server returns for an aggregated
// variations map.
type VariationsDType string

// Supported variations map data types.
const (
	DTypeArray  VariationsDType = "array"
	DTypeObject VariationsDType = "object"
)

// VariationsMap tells the server how to aggregate product variations into
// each result.
type VariationsMap struct {
	DType    VariationsDType               `json:"dtype"`
	GroupBy  []GroupByEntry                `json:"group_by,omitempty"`
	Values   map[string]VariationsMapValue `json:"values"`
	FilterBy json.RawMessage               `json:"filter_by,omitempty"`
}

// GroupByEntry groups variations by a field.
type GroupByEntry struct {
	Name  string `json:"name"`
	Field string `json:"field"`
}

// VariationsMapValue aggregates a single field.
type VariationsMapValue struct {
	Aggregation string `json:"aggregation"`
	Field       string `json:"field"`
}

// Encode renders the map as compact JSON. Map keys of Values are sorted by
// encoding/json, so the output is stable.
func (v *VariationsMap) Encode() (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding variations map: %w", err)
	}
	return string(b), nil
}
