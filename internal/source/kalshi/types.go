package kalshi

// RawMarket is one market row as the Kalshi trade API reports it. Numeric
// fields are pointers so a field absent from the payload stays
// distinguishable from a reported zero.
type RawMarket struct {
	Ticker       string   `json:"ticker"`
	MarketType   string   `json:"market_type"`
	OpenTime     string   `json:"open_time"`
	CloseTime    string   `json:"close_time"`
	OpenInterest *float64 `json:"open_interest"`
	Volume       *float64 `json:"volume"`
	Liquidity    *float64 `json:"liquidity"`
	LastPrice    *float64 `json:"last_price"`
	Title        string   `json:"title"`
	Subtitle     string   `json:"subtitle"`
	RulesPrimary string   `json:"rules_primary"`
	Result       string   `json:"result"`
	Category     string   `json:"category"`
	Status       string   `json:"status"`
}

// MarketsResponse is one page of the paginated /markets listing. An empty
// Cursor is Kalshi's "no more pages" sentinel.
type MarketsResponse struct {
	Markets []RawMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}
