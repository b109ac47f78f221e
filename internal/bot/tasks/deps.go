// Package tasks implements the bot's recurring system tasks and their registry.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/goodlifebot/internal/config"
	"github.com/edgard/goodlifebot/internal/database"
	"github.com/edgard/goodlifebot/internal/session"
)

// Sweeper runs the inactivity sweep.
type Sweeper interface {
	SweepInactive(ctx context.Context) (session.SweepStats, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Sweeper Sweeper
	Config  *config.Config
}
