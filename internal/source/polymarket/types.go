package polymarket

import "github.com/shopspring/decimal"

// RawToken is one outcome token on a CLOB market. Prices arrive as decimal
// fractions of a dollar (0-1).
type RawToken struct {
	TokenID string          `json:"token_id"`
	Outcome string          `json:"outcome"`
	Price   decimal.Decimal `json:"price"`
	Winner  bool            `json:"winner"`
}

// RawMarket is one market as the Polymarket CLOB API reports it. Only the
// fields the pipeline maps are modeled; the audit sink keeps the full
// payload.
type RawMarket struct {
	ConditionID string     `json:"condition_id"`
	QuestionID  string     `json:"question_id"`
	Question    string     `json:"question"`
	Description string     `json:"description"`
	MarketSlug  string     `json:"market_slug"`
	EndDateISO  string     `json:"end_date_iso"`
	Active      bool       `json:"active"`
	Closed      bool       `json:"closed"`
	Tokens      []RawToken `json:"tokens"`
	Tags        []string   `json:"tags"`
}

// MarketsResponse is one page of the CLOB /markets listing. NextCursor is
// opaque; the value "LTE=" signals the final page.
type MarketsResponse struct {
	Data       []RawMarket `json:"data"`
	NextCursor string      `json:"next_cursor"`
	Limit      int         `json:"limit"`
	Count      int         `json:"count"`
}
