package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"adjacent/internal/models"
	"adjacent/internal/source"
)

const platform = "Kalshi"

// Kalshi's cursor pagination reports exhaustion as an empty cursor. This
// is source-specific; see the Polymarket adapter for the opposite
// convention.
const cursorDone = ""

type Adapter struct {
	client    *Client
	audit     source.AuditSink
	pageLimit int
	logger    *zap.Logger
}

func NewAdapter(client *Client, audit source.AuditSink, pageLimit int, logger *zap.Logger) *Adapter {
	if pageLimit <= 0 {
		pageLimit = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{client: client, audit: audit, pageLimit: pageLimit, logger: logger}
}

func (a *Adapter) Platform() string { return platform }

func (a *Adapter) Extract(ctx context.Context) ([]models.Market, error) {
	raw, err := a.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	a.auditRaw(ctx, raw)

	out := make([]models.Market, 0, len(raw))
	for _, m := range raw {
		out = append(out, normalize(m))
	}
	return out, nil
}

// fetchAll authenticates once, then pages through /markets until the empty
// cursor. A page failure truncates the result to what was already fetched.
func (a *Adapter) fetchAll(ctx context.Context) ([]RawMarket, error) {
	token, err := a.client.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("kalshi login: %w", err)
	}

	var all []RawMarket
	cursor := ""
	for {
		page, err := a.client.GetMarkets(ctx, token, cursor, a.pageLimit)
		if err != nil {
			a.logger.Warn("kalshi pagination truncated",
				zap.Int("fetched", len(all)),
				zap.Error(err))
			return all, nil
		}
		all = append(all, page.Markets...)
		if page.Cursor == cursorDone {
			break
		}
		cursor = page.Cursor
	}
	return all, nil
}

func (a *Adapter) auditRaw(ctx context.Context, raw []RawMarket) {
	if a.audit == nil {
		return
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		a.logger.Warn("kalshi audit marshal failed", zap.Error(err))
		return
	}
	key := strings.ToLower(platform) + "-" + time.Now().UTC().Format(time.RFC3339)
	if err := a.audit.Put(ctx, key, payload); err != nil {
		a.logger.Warn("kalshi audit write failed", zap.String("key", key), zap.Error(err))
	}
}

// normalize maps one Kalshi row onto the canonical record. Kalshi reports
// prices on the 0-100 cent scale, so last_price is the probability as-is.
func normalize(m RawMarket) models.Market {
	var category []string
	if m.Category != "" {
		category = []string{m.Category}
	} else {
		category = []string{}
	}

	return models.Market{
		Ticker:       m.Ticker,
		AdjTicker:    models.AdjTicker(platform, m.Ticker),
		MarketType:   m.MarketType,
		ReportedDate: m.OpenTime,
		EndDate:      models.StringPtr(m.CloseTime),
		MarketSlug:   m.Ticker,
		OpenInterest: m.OpenInterest,
		Volume:       m.Volume,
		Liquidity:    m.Liquidity,
		Probability:  m.LastPrice,
		Question:     m.Title,
		Description:  m.Subtitle,
		Rules:        models.StringPtr(m.RulesPrimary),
		Forecasts:    nil,
		Result:       models.StringPtr(m.Result),
		Link:         "https://kalshi.com/markets/" + m.Ticker,
		Category:     category,
		Status:       normalizeStatus(m.Status),
		Platform:     platform,
	}
}

func normalizeStatus(status string) string {
	switch strings.ToLower(status) {
	case "open", "active":
		return models.StatusActive
	default:
		return models.StatusFinalized
	}
}
