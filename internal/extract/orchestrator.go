package extract

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"adjacent/internal/models"
	"adjacent/internal/source"
)

// Orchestrator runs every configured source adapter once per tick and
// concatenates their normalized output. Adapters are independent; one
// failing degrades the tick instead of aborting it.
type Orchestrator struct {
	Adapters []source.Adapter
	Logger   *zap.Logger
}

func (o *Orchestrator) RunTick(ctx context.Context) []models.Market {
	runID := uuid.NewString()
	var all []models.Market

	for _, adapter := range o.Adapters {
		markets, err := adapter.Extract(ctx)
		if err != nil {
			o.Logger.Warn("adapter extract failed",
				zap.String("run_id", runID),
				zap.String("platform", adapter.Platform()),
				zap.Error(err))
			continue
		}
		all = append(all, markets...)
		o.Logger.Info("adapter extract complete",
			zap.String("run_id", runID),
			zap.String("platform", adapter.Platform()),
			zap.Int("markets", len(markets)))
	}

	o.Logger.Info("extraction tick complete",
		zap.String("run_id", runID),
		zap.Int("total", len(all)))
	return all
}
