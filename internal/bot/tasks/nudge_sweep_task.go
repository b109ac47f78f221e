package tasks

import (
	"context"
	"fmt"
	"time"
)

// nudgeSweepTimeout bounds one sweep so a stuck delivery cannot hold the
// job past its next run.
const nudgeSweepTimeout = 30 * time.Minute

// newNudgeSweepTask re-engages users who have been quiet for longer than
// the configured inactivity threshold.
func newNudgeSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "nudge_sweep")

	return func(ctx context.Context) error {
		if !deps.Config.Nudge.Enabled {
			log.DebugContext(ctx, "Nudges disabled, skipping sweep")
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, nudgeSweepTimeout)
		defer cancel()

		stats, err := deps.Sweeper.SweepInactive(ctx)
		if err != nil {
			return fmt.Errorf("nudge sweep failed: %w", err)
		}
		if stats.Failed > 0 {
			log.WarnContext(ctx, "Some nudges were not delivered", "failed", stats.Failed, "sent", stats.Sent)
		}
		return nil
	}
}
