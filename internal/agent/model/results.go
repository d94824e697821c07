package model

import "encoding/json"

// CalcResult is the arithmetic capability's typed result.
type CalcResult struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
}

// ProductHit is one scored catalog match.
type ProductHit struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
	Price float64 `json:"price,omitempty"`
}

// ProductSearchResult is the catalog-search capability's typed result.
type ProductSearchResult struct {
	Query   string       `json:"query"`
	TopK    []ProductHit `json:"topK"`
	Summary string       `json:"summary,omitempty"`
}

// OutletRow is a single row returned by the structured-data lookup.
type OutletRow struct {
	Name       string `json:"name"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Address    string `json:"address,omitempty"`
	OpenTime   string `json:"open_time,omitempty"`
	CloseTime  string `json:"close_time,omitempty"`
	Services   string `json:"services,omitempty"`
}

// OutletQueryResult is the structured-data-lookup capability's typed result.
// Query, GeneratedQuery, and Parameters are backend internals; they are kept
// for context enrichment and API responses but never fed back into prompts.
type OutletQueryResult struct {
	Query          string         `json:"query"`
	GeneratedQuery string         `json:"generatedQuery"`
	Parameters     map[string]any `json:"parameters"`
	Rows           []OutletRow    `json:"rows"`
}

// ResultToMap round-trips a typed result through JSON so conversation state
// holds the same shape whether it was just written or reloaded from the store.
func ResultToMap(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
