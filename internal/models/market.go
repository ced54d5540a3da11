package models

import "strings"

// Market status values. Source-specific vocabularies ("open", "closed",
// "settled", ...) are mapped onto this pair by the adapters.
const (
	StatusActive    = "active"
	StatusFinalized = "finalized"
)

// Market is the canonical record every source is normalized into. It is the
// unit of exchange between the extraction, dispatch and consumer stages and
// matches the markets_data row shape in the canonical store.
//
// Pointer and slice fields are nullable: nil means "not reported by the
// source", which is distinct from a reported zero and must survive
// serialization as JSON null.
type Market struct {
	Ticker       string   `json:"ticker"`
	AdjTicker    string   `json:"adj_ticker"`
	MarketType   string   `json:"market_type"`
	ReportedDate string   `json:"reported_date"`
	EndDate      *string  `json:"end_date"`
	MarketSlug   string   `json:"market_slug"`
	OpenInterest *float64 `json:"open_interest"`
	Volume       *float64 `json:"volume"`
	Liquidity    *float64 `json:"liquidity"`
	Probability  *float64 `json:"probability"`
	Question     string   `json:"question"`
	Description  string   `json:"description"`
	Rules        *string  `json:"rules"`
	Forecasts    *float64 `json:"forecasts"`
	Result       *string  `json:"result"`
	Link         string   `json:"link"`
	Category     []string `json:"category"`
	Status       string   `json:"status"`
	Platform     string   `json:"platform"`

	// QuestionEmbedding is set by the upsert consumer on first insert and
	// never recomputed. It is omitted when nil so update payloads leave the
	// stored vector untouched.
	QuestionEmbedding []float64 `json:"question_embedding,omitempty"`
}

// AdjTicker derives the globally unique market identifier from a platform
// name and the source-native ticker. The derivation is deterministic:
// ADJ-<PLATFORM>-<ticker>, with the ticker uppercased and every literal dot
// escaped as "/." so it cannot collide with path or field separators
// downstream.
func AdjTicker(platform, ticker string) string {
	normalized := strings.ReplaceAll(strings.ToUpper(ticker), ".", "/.")
	return "ADJ-" + strings.ToUpper(platform) + "-" + normalized
}

// Float64Ptr returns a pointer to v. Adapters use it when a source reports a
// concrete numeric value (including zero).
func Float64Ptr(v float64) *float64 {
	return &v
}

// StringPtr returns a pointer to s, or nil for the empty string. Sources
// that render "no value" as "" map through this into canonical null.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
