package agent

import (
	"context"
	"fmt"
	"time"

	"infra-scraper/internal/model"
)

func (a *Agent) emit(ctx context.Context, report model.UtilizationReport) error {
	for _, sink := range a.sinks {
		emitCtx, cancel := context.WithTimeout(ctx, a.cfg.EmitTimeout)
		err := sink.SendReport(emitCtx, report)
		cancel()
		if err != nil {
			return fmt.Errorf("emit report: %w", err)
		}
	}
	return nil
}

func (a *Agent) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, sink := range a.sinks {
		if err := sink.Close(ctx); err != nil {
			a.logger.Warn("sink close failed", "error", err)
		}
	}
}
