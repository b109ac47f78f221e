package session

import (
	"context"
	"fmt"

	"github.com/edgard/goodlifebot/internal/conversation"
	"github.com/edgard/goodlifebot/internal/database"
)

// Dispatch routes free text from a user according to their conversation
// state. Text received while Idle is ignored.
func (s *Service) Dispatch(ctx context.Context, userID int64, text string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	rec, err := s.conversations.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	if n, ok := rec.State.StepIndex(); ok {
		return s.collectAnswer(ctx, userID, rec, n, text)
	}

	switch rec.State {
	case conversation.AwaitingRegion:
		return s.chooseRegion(ctx, userID, text)
	case conversation.AwaitingTime:
		return s.chooseTime(ctx, userID, rec, text)
	default:
		s.logger.DebugContext(ctx, "Ignoring text outside of a session", "user_id", userID, "state", rec.State)
		return nil
	}
}

// collectAnswer stores the reply to question n and moves the dialog on.
// The state only advances once the answer is stored.
func (s *Service) collectAnswer(ctx context.Context, userID int64, rec conversation.Record, n int, text string) error {
	log := s.logger.With("user_id", userID, "step", n)
	now := s.clock.Now()

	if err := s.store.TouchActivity(ctx, userID, now); err != nil {
		log.WarnContext(ctx, "Failed to record activity", "error", err)
	}

	profile, profileErr := s.store.GetUserProfile(ctx, userID)
	if profileErr != nil {
		log.WarnContext(ctx, "Failed to load profile, using default timezone", "error", profileErr)
		profile = nil
	}
	today := s.today(s.zoneOf(profile))

	sessionDate := rec.Data.SessionDate()
	if sessionDate == "" {
		log.WarnContext(ctx, "Session without a date, using today", "date", today)
		sessionDate = today
	}

	answer := &database.Answer{
		UserID:      userID,
		SessionDate: sessionDate,
		QIndex:      n,
		Question:    s.cfg.Session.Questions[n-1],
		Answer:      text,
		CreatedAt:   database.FormatTimestamp(now),
	}
	if err := s.store.AppendAnswer(ctx, answer); err != nil {
		s.notify(ctx, userID, s.cfg.Messages.GeneralError, nil)
		return fmt.Errorf("failed to store answer: %w", err)
	}

	if n < conversation.Steps {
		if _, err := s.conversations.Transition(ctx, userID, conversation.EventAnswer, nil); err != nil {
			return fmt.Errorf("failed to advance session: %w", err)
		}
		s.notify(ctx, userID, s.cfg.Session.Questions[n], s.mainKeyboard())
		return nil
	}

	// Without the profile the skip date is unknown, so a deferral is dropped.
	pending := rec.Data.PendingDate()
	if pending != "" && profileErr != nil {
		log.WarnContext(ctx, "Dropping deferred session, profile unavailable", "pending_date", pending)
	} else if pending == today && !skipsDate(profile, today) && !profile.SessionStartedOn(today) {
		log.InfoContext(ctx, "Chaining into deferred session", "finished", sessionDate, "next", today)
		return s.startSession(ctx, userID, today, conversation.EventChain, s.cfg.Messages.Chained)
	}

	if _, err := s.conversations.Transition(ctx, userID, conversation.EventFinish, conversation.Data{}); err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	log.InfoContext(ctx, "Session completed", "session_date", sessionDate)
	s.notify(ctx, userID, s.cfg.Messages.Completed, s.mainKeyboard())
	return nil
}
