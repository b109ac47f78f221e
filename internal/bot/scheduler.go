package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/goodlifebot/internal/bot/tasks"
	"github.com/edgard/goodlifebot/internal/config"
	"github.com/edgard/goodlifebot/internal/domain"
	"github.com/edgard/goodlifebot/internal/logger"
)

const (
	tagTrigger = "trigger"
	tagTask    = "task"

	// triggerTimeout bounds a single trigger callback.
	triggerTimeout = 2 * time.Minute
)

// TriggerFunc is invoked when a user's daily trigger fires.
type TriggerFunc func(ctx context.Context, userID int64) error

// trigger is one user's armed daily firing.
type trigger struct {
	id  uuid.UUID
	at  domain.TimeOfDay
	loc *time.Location
	due time.Time
}

// Scheduler owns the gocron scheduler. It runs the configured system tasks
// and keeps at most one daily trigger per user.
//
// A user trigger is a one-time job armed for the next firing computed by
// domain.NextFire and re-armed for the following day each time it fires,
// so daylight-saving days fire exactly once.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	clock     clockwork.Clock
	taskMap   map[string]tasks.ScheduledTaskFunc

	mu        sync.Mutex
	running   bool
	triggers  map[int64]*trigger
	onTrigger TriggerFunc
	baseCtx   context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a scheduler evaluating cron expressions in UTC.
// Per-user triggers carry their own zone. A nil clock means the real clock.
func NewScheduler(log *slog.Logger, cfg *config.SchedulerConfig, clock clockwork.Clock) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithClock(clock),
		gocron.WithLogger(logger.NewGocronLogger(log)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		logger:    log.With("component", "scheduler"),
		cfg:       cfg,
		clock:     clock,
		taskMap:   map[string]tasks.ScheduledTaskFunc{},
		triggers:  map[int64]*trigger{},
		baseCtx:   baseCtx,
		cancel:    cancel,
	}, nil
}

// SetTasks supplies the task registry consulted by Start.
func (s *Scheduler) SetTasks(taskMap map[string]tasks.ScheduledTaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskMap = taskMap
}

// OnTrigger sets the callback run for every firing user trigger.
func (s *Scheduler) OnTrigger(fn TriggerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTrigger = fn
}

// Schedule installs or replaces the daily trigger of userID at the given
// local time of day in loc.
func (s *Scheduler) Schedule(userID int64, at domain.TimeOfDay, loc *time.Location) error {
	if loc == nil {
		return fmt.Errorf("no timezone for user %d", userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arm(userID, at, loc, domain.NextFire(s.clock.Now(), at, loc))
}

// arm points userID's job at due. The caller holds s.mu.
func (s *Scheduler) arm(userID int64, at domain.TimeOfDay, loc *time.Location, due time.Time) error {
	definition := gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(due))
	task := gocron.NewTask(s.runTrigger, userID, due)
	opts := []gocron.JobOption{
		gocron.WithName("trigger:" + strconv.FormatInt(userID, 10)),
		gocron.WithTags(tagTrigger),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}

	var (
		job gocron.Job
		err error
	)
	if existing, ok := s.triggers[userID]; ok {
		job, err = s.scheduler.Update(existing.id, definition, task, opts...)
		if errors.Is(err, gocron.ErrJobNotFound) {
			delete(s.triggers, userID)
			job, err = s.scheduler.NewJob(definition, task, opts...)
		}
	} else {
		job, err = s.scheduler.NewJob(definition, task, opts...)
	}
	if err != nil {
		return fmt.Errorf("failed to schedule trigger for user %d: %w", userID, err)
	}
	s.triggers[userID] = &trigger{id: job.ID(), at: at, loc: loc, due: due}

	s.logger.Debug("Trigger armed", "user_id", userID, "time", at.String(), "timezone", loc.String(),
		"next_run", due.Format(time.RFC3339))
	return nil
}

// rearm moves userID's trigger on to the firing after due, unless the
// trigger was replaced or removed since due was armed.
func (s *Scheduler) rearm(userID int64, due time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.triggers[userID]
	if !ok || !t.due.Equal(due) {
		return
	}
	from := s.clock.Now()
	if from.Before(due) {
		from = due
	}
	if err := s.arm(userID, t.at, t.loc, domain.NextFire(from, t.at, t.loc)); err != nil {
		s.logger.Error("Failed to re-arm trigger", "user_id", userID, "error", err)
	}
}

// Unschedule removes the trigger of userID if there is one.
func (s *Scheduler) Unschedule(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.triggers[userID]
	if !ok {
		return
	}
	delete(s.triggers, userID)
	if err := s.scheduler.RemoveJob(t.id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		s.logger.Warn("Failed to remove trigger job", "user_id", userID, "error", err)
		return
	}
	s.logger.Debug("Trigger removed", "user_id", userID)
}

// Has reports whether userID has an installed trigger.
func (s *Scheduler) Has(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.triggers[userID]
	return ok
}

// Count returns the number of installed user triggers.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

// NextRun returns the instant userID's trigger is armed for.
func (s *Scheduler) NextRun(userID int64) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.triggers[userID]
	if !ok {
		return time.Time{}, fmt.Errorf("no trigger for user %d: %w", userID, gocron.ErrJobNotFound)
	}
	return t.due, nil
}

// runTrigger is the body of every user trigger job. The next firing is
// armed before the callback runs. Panics and errors are contained here so
// one user's failure never affects the registry.
func (s *Scheduler) runTrigger(userID int64, due time.Time) {
	s.rearm(userID, due)

	s.mu.Lock()
	fn := s.onTrigger
	s.mu.Unlock()
	if fn == nil {
		s.logger.Warn("Trigger fired without a handler", "user_id", userID)
		return
	}

	ctx, cancel := context.WithTimeout(s.baseCtx, triggerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Trigger handler panicked", "user_id", userID, "panic", r)
		}
	}()

	startTime := time.Now()
	if err := fn(ctx, userID); err != nil {
		s.logger.Error("Trigger handler failed", "user_id", userID, "error", err)
		return
	}
	s.logger.Debug("Trigger handled", "user_id", userID, "duration", time.Since(startTime))
}

// Start schedules every enabled system task and starts the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduledCount := 0
	if s.cfg != nil {
		for taskName, taskConfig := range s.cfg.Tasks {
			if !taskConfig.Enabled {
				s.logger.Info("Skipping disabled task", "task_name", taskName)
				continue
			}
			taskFunc, exists := s.taskMap[taskName]
			if !exists {
				s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", taskName)
				continue
			}

			_, err := s.scheduler.NewJob(
				gocron.CronJob(taskConfig.Schedule, false),
				gocron.NewTask(s.runTask, taskName, taskFunc),
				gocron.WithName(taskName),
				gocron.WithTags(tagTask),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
			if err != nil {
				s.logger.Error("Failed to schedule task", "task_name", taskName, "schedule", taskConfig.Schedule, "error", err)
				continue
			}
			s.logger.Info("Scheduled task", "task_name", taskName, "schedule", taskConfig.Schedule)
			scheduledCount++
		}
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduledCount, "triggers", len(s.triggers))
	return nil
}

func (s *Scheduler) runTask(name string, taskFunc tasks.ScheduledTaskFunc) {
	s.logger.Info("Running scheduled task", "task_name", name)
	startTime := time.Now()
	if err := taskFunc(s.baseCtx); err != nil {
		s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
	}
	s.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(startTime))
}

// Stop cancels in-flight callbacks and shuts the scheduler down, waiting
// for running jobs to return.
func (s *Scheduler) Stop() error {
	s.cancel()
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.Info("Scheduler stopped")
	return nil
}
