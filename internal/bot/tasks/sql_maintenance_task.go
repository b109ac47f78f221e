package tasks

import (
	"context"
	"fmt"
	"time"
)

// sqlMaintenanceTimeout bounds one VACUUM run.
const sqlMaintenanceTimeout = 10 * time.Minute

func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, sqlMaintenanceTimeout)
		defer cancel()

		startTime := time.Now()
		if err := deps.Store.Ping(ctx); err != nil {
			return fmt.Errorf("database unavailable for maintenance: %w", err)
		}

		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance completed", "duration", time.Since(startTime))
		return nil
	}
}
