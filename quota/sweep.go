package quota

import (
	"context"
	"log/slog"
	"time"
)

// SweepWorker periodically reclaims stale usage records.
// It runs under the supervisor like any other worker.
type SweepWorker struct {
	limiter  *Limiter
	interval time.Duration
	log      *slog.Logger
}

func NewSweepWorker(limiter *Limiter, interval time.Duration, log *slog.Logger) *SweepWorker {
	return &SweepWorker{limiter: limiter, interval: interval, log: log}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping quota sweep worker")
			return ctx.Err()
		case <-ticker.C:
			if removed := w.limiter.Sweep(); removed > 0 {
				w.log.Debug("Swept stale quota records", "removed", removed)
			}
		}
	}
}
