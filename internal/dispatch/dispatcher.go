package dispatch

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"adjacent/internal/models"
)

// Publisher publishes one serialized batch as one queue message.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Dispatcher splits a normalized market sequence into bounded batches and
// publishes each as an independent message. Record order is preserved
// within a batch; nothing is guaranteed across batches.
type Dispatcher struct {
	Publisher Publisher
	BatchSize int
	Logger    *zap.Logger
}

// Dispatch publishes the markets in contiguous chunks of at most BatchSize
// and returns the number of batches published. A publish failure is logged
// and does not block the remaining batches.
func (d *Dispatcher) Dispatch(ctx context.Context, markets []models.Market) int {
	size := d.BatchSize
	if size <= 0 {
		size = 50
	}

	published := 0
	for start := 0; start < len(markets); start += size {
		end := start + size
		if end > len(markets) {
			end = len(markets)
		}
		batch := markets[start:end]

		payload, err := json.Marshal(batch)
		if err != nil {
			d.Logger.Warn("batch marshal failed",
				zap.Int("offset", start),
				zap.Int("size", len(batch)),
				zap.Error(err))
			continue
		}
		if err := d.Publisher.Publish(ctx, payload); err != nil {
			d.Logger.Warn("batch publish failed",
				zap.Int("offset", start),
				zap.Int("size", len(batch)),
				zap.Error(err))
			continue
		}
		published++
	}

	d.Logger.Info("dispatch complete",
		zap.Int("markets", len(markets)),
		zap.Int("batches", published))
	return published
}
