package scheduler

import (
	"context"

	"REMINDME_BACK-END/internal/logging"
)

// Sweeper drops expired sessions.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// SessionSweep returns a Task that sweeps expired sessions.
func SessionSweep(s Sweeper, logger logging.Logger) Task {
	return func(ctx context.Context) error {
		if n := s.Sweep(ctx); n > 0 {
			logger.Info(ctx, "expired sessions removed", "count", n)
		}
		return nil
	}
}
