package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/goodlifebot/internal/config"
	"github.com/edgard/goodlifebot/internal/database"
	"github.com/edgard/goodlifebot/internal/session"
)

type stubSweeper struct {
	calls int
	stats session.SweepStats
	err   error
}

func (s *stubSweeper) SweepInactive(context.Context) (session.SweepStats, error) {
	s.calls++
	return s.stats, s.err
}

func newDeps(t *testing.T, sweeper Sweeper) TaskDeps {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return TaskDeps{
		Logger:  logger,
		Store:   database.NewStore(db, logger),
		Sweeper: sweeper,
		Config:  &config.Config{Nudge: config.NudgeConfig{Enabled: true}},
	}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	tasks := RegisterAllTasks(newDeps(t, &stubSweeper{}))
	assert.Len(t, tasks, 2)
	assert.Contains(t, tasks, config.TaskSQLMaintenance)
	assert.Contains(t, tasks, config.TaskNudgeSweep)
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	task := newSQLMaintenanceTask(newDeps(t, nil))
	require.NoError(t, task(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, task(ctx))
}

func TestNudgeSweepTask(t *testing.T) {
	t.Parallel()

	t.Run("runs the sweep", func(t *testing.T) {
		t.Parallel()
		sweeper := &stubSweeper{stats: session.SweepStats{Checked: 3, Sent: 1, Failed: 1}}
		require.NoError(t, newNudgeSweepTask(newDeps(t, sweeper))(context.Background()))
		assert.Equal(t, 1, sweeper.calls)
	})

	t.Run("propagates sweep errors", func(t *testing.T) {
		t.Parallel()
		sweeper := &stubSweeper{err: errors.New("db locked")}
		require.Error(t, newNudgeSweepTask(newDeps(t, sweeper))(context.Background()))
	})

	t.Run("disabled nudges skip the sweep", func(t *testing.T) {
		t.Parallel()
		sweeper := &stubSweeper{}
		deps := newDeps(t, sweeper)
		deps.Config.Nudge.Enabled = false
		require.NoError(t, newNudgeSweepTask(deps)(context.Background()))
		assert.Zero(t, sweeper.calls)
	})
}
