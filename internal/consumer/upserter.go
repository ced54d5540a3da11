// Package consumer applies queued market batches to the canonical store.
// Each batch is classified record by record into inserts and updates;
// inserts are enriched with a question embedding before they are written.
// Processing is idempotent, so a redelivered batch converges to the same
// stored state.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"adjacent/internal/models"
)

// Store is the subset of the canonical store the upserter needs.
type Store interface {
	GetByAdjTicker(ctx context.Context, adjTicker string) ([]models.Market, error)
	InsertMarkets(ctx context.Context, markets []models.Market) error
	UpdateMarket(ctx context.Context, market models.Market) error
}

// Embedder produces the question vector attached to first-time inserts.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type Upserter struct {
	Store    Store
	Embedder Embedder
	Logger   *zap.Logger
}

// envelope matches producers that wrap the batch in a body field instead of
// sending the bare array.
type envelope struct {
	Body []models.Market `json:"body"`
}

func decodeBatch(payload []byte) ([]models.Market, error) {
	var markets []models.Market
	if err := json.Unmarshal(payload, &markets); err == nil {
		return markets, nil
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	if env.Body == nil {
		return nil, errors.New("decode batch: neither array nor body envelope")
	}
	return env.Body, nil
}

// HandleBatch applies one queued batch. It returns nil only when every
// record reached its final state: a non-nil return leaves the message
// unacknowledged so the whole batch is retried. Records whose embedding
// fails are dropped from the insert set rather than failing the batch; the
// next extraction tick re-emits them.
func (u *Upserter) HandleBatch(ctx context.Context, payload []byte) error {
	markets, err := decodeBatch(payload)
	if err != nil {
		return err
	}
	if len(markets) == 0 {
		return nil
	}

	var inserts, updates []models.Market
	for _, m := range markets {
		rows, err := u.Store.GetByAdjTicker(ctx, m.AdjTicker)
		if err != nil {
			return fmt.Errorf("classify %s: %w", m.AdjTicker, err)
		}
		if len(rows) == 0 {
			inserts = append(inserts, m)
		} else {
			updates = append(updates, m)
		}
	}

	enriched := make([]models.Market, 0, len(inserts))
	for _, m := range inserts {
		vec, err := u.Embedder.Embed(ctx, m.Question)
		if err != nil {
			u.Logger.Warn("embedding failed, record deferred to next tick",
				zap.String("adj_ticker", m.AdjTicker),
				zap.Error(err))
			continue
		}
		m.QuestionEmbedding = vec
		enriched = append(enriched, m)
	}

	if err := u.Store.InsertMarkets(ctx, enriched); err != nil {
		return fmt.Errorf("insert %d markets: %w", len(enriched), err)
	}

	var failed []string
	for _, m := range updates {
		if err := u.Store.UpdateMarket(ctx, m); err != nil {
			u.Logger.Warn("update failed",
				zap.String("adj_ticker", m.AdjTicker),
				zap.Error(err))
			failed = append(failed, m.AdjTicker)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("update failed for %d of %d markets: %v", len(failed), len(updates), failed)
	}

	u.Logger.Info("batch applied",
		zap.Int("inserted", len(enriched)),
		zap.Int("updated", len(updates)),
		zap.Int("deferred", len(inserts)-len(enriched)))
	return nil
}
