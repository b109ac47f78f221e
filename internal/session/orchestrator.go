package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgard/goodlifebot/internal/conversation"
	"github.com/edgard/goodlifebot/internal/database"
	"github.com/edgard/goodlifebot/internal/domain"
)

// Fire runs when a user's daily trigger goes off. It starts today's
// session, records a deferral when the user is still busy with an earlier
// one, or does nothing when today is skipped or already had its session.
// A returned error never affects the trigger itself.
func (s *Service) Fire(ctx context.Context, userID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	log := s.logger.With("user_id", userID)

	profile, err := s.store.GetUserProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile on trigger: %w", err)
	}
	if !profile.Schedulable() {
		log.WarnContext(ctx, "Trigger fired for user without an active schedule, removing it")
		s.triggers.Unschedule(userID)
		return nil
	}

	today := s.today(s.zoneOf(profile))
	if skipsDate(profile, today) {
		log.InfoContext(ctx, "Today's session skipped by user", "date", today)
		return nil
	}
	s.dropStaleSkip(ctx, profile, today)

	if profile.SessionStartedOn(today) {
		log.InfoContext(ctx, "Session for today already started, ignoring trigger", "date", today)
		return nil
	}

	rec, err := s.conversations.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load conversation on trigger: %w", err)
	}

	if rec.State == conversation.Idle {
		return s.startSession(ctx, userID, today, conversation.EventStartSession, "")
	}

	if rec.State.InSession() && rec.Data.SessionDate() == today {
		log.InfoContext(ctx, "Today's session is already open, ignoring trigger", "date", today, "state", rec.State)
		return nil
	}

	if rec.Data.PendingDate() == today {
		log.DebugContext(ctx, "Deferral already recorded for today", "date", today, "state", rec.State)
		return nil
	}

	if err := s.conversations.UpdateData(ctx, userID, conversation.Data{conversation.KeyPendingDate: today}); err != nil {
		return fmt.Errorf("failed to record deferred session: %w", err)
	}
	log.InfoContext(ctx, "Session deferred until the current one ends", "date", today, "state", rec.State,
		"session_date", rec.Data.SessionDate())
	s.notify(ctx, userID, s.cfg.Messages.Deferred, nil)
	return nil
}

// startSession opens a session for date through ev and sends question one,
// optionally preceded by intro in the same message.
func (s *Service) startSession(ctx context.Context, userID int64, date string, ev conversation.Event, intro string) error {
	_, err := s.conversations.Transition(ctx, userID, ev, conversation.Data{conversation.KeySessionDate: date})
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	s.logger.InfoContext(ctx, "Session started", "user_id", userID, "session_date", date, "event", ev)
	if err := s.store.MarkSessionStarted(ctx, userID, date); err != nil {
		s.logger.WarnContext(ctx, "Failed to record session start", "user_id", userID, "session_date", date, "error", err)
	}

	text := s.cfg.Session.Questions[0]
	if intro != "" {
		text = intro + "\n\n" + text
	}
	s.notify(ctx, userID, text, s.mainKeyboard())
	return nil
}

// dropStaleSkip clears a skip date that lies before today. Dates compare
// as strings in DateLayout form.
func (s *Service) dropStaleSkip(ctx context.Context, profile *database.UserProfile, today string) {
	if !profile.SkipDate.Valid || profile.SkipDate.String >= today {
		return
	}
	if err := s.store.ClearSkipDate(ctx, profile.UserID); err != nil {
		s.logger.WarnContext(ctx, "Failed to clear past skip date", "user_id", profile.UserID, "error", err)
	}
}

// RestoreTriggers installs a trigger for every active user with a schedule
// time. Users whose stored time cannot be parsed are skipped.
func (s *Service) RestoreTriggers(ctx context.Context) (int, error) {
	profiles, err := s.store.ListActiveSchedulableUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list schedulable users: %w", err)
	}

	restored := 0
	for _, p := range profiles {
		at, err := domain.ParseTimeOfDay(p.ScheduleTime.String)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping user with corrupt schedule time", "user_id", p.UserID,
				"schedule_time", strings.TrimSpace(p.ScheduleTime.String), "error", err)
			continue
		}
		if err := s.triggers.Schedule(p.UserID, at, s.zoneOf(p)); err != nil {
			s.logger.ErrorContext(ctx, "Failed to restore trigger", "user_id", p.UserID, "error", err)
			continue
		}
		restored++
	}

	s.logger.InfoContext(ctx, "Triggers restored", "restored", restored, "candidates", len(profiles))
	return restored, nil
}
