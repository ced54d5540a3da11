package polymarket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"adjacent/internal/models"
	"adjacent/internal/source"
)

const platform = "Polymarket"

// The CLOB API signals the final page with this opaque cursor, not an
// empty string — an empty cursor means "first page". Do not collapse the
// two into a falsy check.
const cursorDone = "LTE="

type Adapter struct {
	client *Client
	audit  source.AuditSink
	logger *zap.Logger
	now    func() time.Time
}

func NewAdapter(client *Client, audit source.AuditSink, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{client: client, audit: audit, logger: logger, now: time.Now}
}

func (a *Adapter) Platform() string { return platform }

func (a *Adapter) Extract(ctx context.Context) ([]models.Market, error) {
	raw := a.fetchAll(ctx)
	a.auditRaw(ctx, raw)

	reported := renderTimestamp(a.now().UTC())
	out := make([]models.Market, 0, len(raw))
	for _, m := range raw {
		out = append(out, normalize(m, reported))
	}
	return out, nil
}

// fetchAll pages through /markets until the LTE= sentinel. A page failure
// truncates the result to what was already fetched.
func (a *Adapter) fetchAll(ctx context.Context) []RawMarket {
	var all []RawMarket
	cursor := ""
	for {
		page, err := a.client.GetMarkets(ctx, cursor)
		if err != nil {
			a.logger.Warn("polymarket pagination truncated",
				zap.Int("fetched", len(all)),
				zap.Error(err))
			return all
		}
		all = append(all, page.Data...)
		if page.NextCursor == cursorDone {
			break
		}
		cursor = page.NextCursor
	}
	return all
}

func (a *Adapter) auditRaw(ctx context.Context, raw []RawMarket) {
	if a.audit == nil {
		return
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		a.logger.Warn("polymarket audit marshal failed", zap.Error(err))
		return
	}
	key := strings.ToLower(platform) + "-" + a.now().UTC().Format(time.RFC3339)
	if err := a.audit.Put(ctx, key, payload); err != nil {
		a.logger.Warn("polymarket audit write failed", zap.String("key", key), zap.Error(err))
	}
}

// normalize maps one CLOB market onto the canonical record. The CLOB API
// does not report open interest, volume or liquidity on the listing
// endpoint, so those stay null rather than zero.
func normalize(m RawMarket, reported string) models.Market {
	var endDate *string
	if m.EndDateISO != "" {
		if ts, err := time.Parse(time.RFC3339, m.EndDateISO); err == nil {
			endDate = models.StringPtr(renderTimestamp(ts.UTC()))
		} else {
			endDate = models.StringPtr(m.EndDateISO)
		}
	}

	category := make([]string, 0, len(m.Tags))
	for _, tag := range m.Tags {
		if tag != "" {
			category = append(category, tag)
		}
	}

	status := models.StatusFinalized
	if m.Active {
		status = models.StatusActive
	}

	return models.Market{
		Ticker:       m.MarketSlug,
		AdjTicker:    models.AdjTicker(platform, m.MarketSlug),
		MarketType:   "binary",
		ReportedDate: reported,
		EndDate:      endDate,
		MarketSlug:   m.MarketSlug,
		OpenInterest: nil,
		Volume:       nil,
		Liquidity:    nil,
		Probability:  probability(m.Tokens),
		Question:     m.Question,
		Description:  m.Description,
		Rules:        nil,
		Forecasts:    nil,
		Result:       nil,
		Link:         "https://polymarket.com/market/" + m.MarketSlug,
		Category:     category,
		Status:       status,
		Platform:     platform,
	}
}

// probability converts the first token's 0-1 dollar price to the canonical
// 0-100 scale. No tokens, or an unpriced token, means no probability.
func probability(tokens []RawToken) *float64 {
	if len(tokens) == 0 || tokens[0].Price.IsZero() {
		return nil
	}
	v, _ := tokens[0].Price.Mul(decimal.NewFromInt(100)).Float64()
	return &v
}

// renderTimestamp matches the store's timestamp rendering:
// "YYYY-MM-DD HH:MM:SS+00".
func renderTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05") + "+00"
}
