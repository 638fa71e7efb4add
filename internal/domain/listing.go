package domain

// Listing is one normalized property record. It is assembled once by the
// normalizer and never mutated afterwards, except for the AI fields, which
// the ranking annotator fills in place before the result is returned.
type Listing struct {
	Source         string   `json:"source"`
	Title          string   `json:"title"`
	Neighborhood   string   `json:"neighborhood"`
	City           string   `json:"city"`
	Price          *int64   `json:"price,omitempty"`
	PriceFormatted string   `json:"price_formatted"`
	Area           *float64 `json:"area,omitempty"`
	PricePerArea   *int64   `json:"price_per_area,omitempty"`

	// Portals disagree on whether these are numbers or strings ("3" vs 3 vs
	// 3.0), so the raw value is kept as-is and coerced only at filter time.
	Bedrooms  any `json:"bedrooms,omitempty"`
	Bathrooms any `json:"bathrooms,omitempty"`
	Parking   any `json:"parking,omitempty"`
	Stratum   any `json:"stratum,omitempty"`
	Age       any `json:"age,omitempty"`

	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image,omitempty"`

	// Populated by the ranking annotator; zero values when it is absent.
	AIScore      *float64 `json:"ai_score,omitempty"`
	PriceVerdict string   `json:"price_verdict,omitempty"`
	AISummary    string   `json:"ai_summary,omitempty"`
	AIPros       []string `json:"ai_pros,omitempty"`
	AICons       []string `json:"ai_cons,omitempty"`
	InTopN       bool     `json:"in_top_n,omitempty"`
	TopNReason   string   `json:"top_n_reason,omitempty"`
}

// SourceError is one portal's failure during a search, kept for diagnostics
// instead of being propagated to the caller.
type SourceError struct {
	Source string `json:"source"`
	Err    string `json:"error"`
}

// SearchResult is the one external contract of the search pipeline.
type SearchResult struct {
	Results      []Listing     `json:"results"`
	Total        int           `json:"total"`
	Advisory     string        `json:"advisory"`
	SourceErrors []SourceError `json:"source_errors,omitempty"`
}
