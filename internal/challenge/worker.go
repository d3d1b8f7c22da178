package challenge

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickWorker drives the builder from an in-process ticker for deployments
// without an external cron. It reuses the exact RunOnce entrypoint, so the
// builder's own gates decide whether a tick does anything.
type TickWorker struct {
	builder  *Builder
	interval time.Duration
	logger   zerolog.Logger
}

func NewTickWorker(builder *Builder, interval time.Duration, logger zerolog.Logger) *TickWorker {
	return &TickWorker{
		builder:  builder,
		interval: interval,
		logger:   logger.With().Str("component", "challenge_tick_worker").Logger(),
	}
}

// Run blocks until context cancellation.
func (w *TickWorker) Run(ctx context.Context) error {
	if w.builder == nil || w.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *TickWorker) tick(ctx context.Context) {
	result, err := w.builder.RunOnce(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("builder tick failed")
		return
	}
	if result.Success {
		w.logger.Info().Int("batch", result.Batch).Int("added", result.Added).Msg("batch committed")
		return
	}
	w.logger.Debug().Str("message", result.Message).Msg("builder tick")
}
