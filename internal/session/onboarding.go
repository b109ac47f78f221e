package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgard/goodlifebot/internal/conversation"
	"github.com/edgard/goodlifebot/internal/database"
	"github.com/edgard/goodlifebot/internal/domain"
)

func ptr[T any](v T) *T { return &v }

// Register (re)starts onboarding: the user is asked for a region, then a
// time. Any open session is abandoned. An existing trigger stays in place
// until a new time is chosen.
func (s *Service) Register(ctx context.Context, userID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.register(ctx, userID)
}

func (s *Service) register(ctx context.Context, userID int64) error {
	if err := s.store.UpsertUserProfile(ctx, userID, database.ProfileFields{}); err != nil {
		s.notify(ctx, userID, s.cfg.Messages.GeneralError, nil)
		return fmt.Errorf("failed to create profile: %w", err)
	}
	if _, err := s.conversations.Transition(ctx, userID, conversation.EventRegister, conversation.Data{}); err != nil {
		return fmt.Errorf("failed to start onboarding: %w", err)
	}
	s.logger.InfoContext(ctx, "Onboarding started", "user_id", userID)
	s.notify(ctx, userID, s.cfg.Messages.Welcome, s.regionKeyboard())
	return nil
}

func (s *Service) chooseRegion(ctx context.Context, userID int64, text string) error {
	if text == s.cfg.Buttons.Back {
		return s.leaveOnboarding(ctx, userID, s.cfg.Messages.Back)
	}
	if !s.zones.Known(text) {
		s.notify(ctx, userID, s.cfg.Messages.InvalidRegion, s.regionKeyboard())
		return nil
	}

	if err := s.store.UpsertUserProfile(ctx, userID, database.ProfileFields{TimezoneGroup: ptr(text)}); err != nil {
		s.notify(ctx, userID, s.cfg.Messages.GeneralError, nil)
		return fmt.Errorf("failed to save region: %w", err)
	}
	if _, err := s.conversations.Transition(ctx, userID, conversation.EventChooseRegion, nil); err != nil {
		return fmt.Errorf("failed to advance onboarding: %w", err)
	}
	s.logger.InfoContext(ctx, "Region chosen", "user_id", userID, "region", text)
	s.notify(ctx, userID, s.cfg.Messages.ChooseTime, s.timeKeyboard())
	return nil
}

// chooseTime persists the schedule first and installs the trigger second;
// if the trigger cannot be installed the profile is deactivated so that
// store and registry stay consistent.
func (s *Service) chooseTime(ctx context.Context, userID int64, rec conversation.Record, text string) error {
	if text == s.cfg.Buttons.Back {
		return s.leaveOnboarding(ctx, userID, s.cfg.Messages.Back)
	}
	at, err := domain.ParseTimeOfDay(text)
	if err != nil {
		s.notify(ctx, userID, s.cfg.Messages.InvalidTime, s.timeKeyboard())
		return nil
	}

	profile, err := s.store.GetUserProfile(ctx, userID)
	if err != nil {
		s.notify(ctx, userID, s.cfg.Messages.GeneralError, nil)
		return fmt.Errorf("failed to load profile: %w", err)
	}
	loc := s.zoneOf(profile)

	if err := s.store.UpsertUserProfile(ctx, userID, database.ProfileFields{
		ScheduleTime: ptr(at.String()),
		Active:       ptr(true),
	}); err != nil {
		s.notify(ctx, userID, s.cfg.Messages.GeneralError, nil)
		return fmt.Errorf("failed to save schedule: %w", err)
	}

	if err := s.triggers.Schedule(userID, at, loc); err != nil {
		s.triggers.Unschedule(userID)
		if deactivateErr := s.store.SetActive(ctx, userID, false); deactivateErr != nil {
			err = errors.Join(err, deactivateErr)
		}
		s.notify(ctx, userID, s.cfg.Messages.GeneralError, nil)
		return fmt.Errorf("failed to schedule daily trigger: %w", err)
	}

	region := ""
	if profile != nil {
		region = profile.TimezoneGroup.String
	}
	if region == "" {
		region = loc.String()
	}
	s.logger.InfoContext(ctx, "Daily time set", "user_id", userID, "time", at.String(), "timezone", loc.String())

	pending := rec.Data.PendingDate()
	if _, err := s.conversations.Transition(ctx, userID, conversation.EventChooseTime, conversation.Data{}); err != nil {
		return fmt.Errorf("failed to finish onboarding: %w", err)
	}
	s.notify(ctx, userID, fmt.Sprintf(s.cfg.Messages.TimeSaved, at.String(), region), s.mainKeyboard())

	return s.resumeDeferred(ctx, userID, pending)
}

// leaveOnboarding returns to Idle without changing the schedule.
func (s *Service) leaveOnboarding(ctx context.Context, userID int64, text string) error {
	rec, err := s.conversations.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}
	if _, err := s.conversations.Transition(ctx, userID, conversation.EventBack, conversation.Data{}); err != nil {
		return fmt.Errorf("failed to leave onboarding: %w", err)
	}
	s.notify(ctx, userID, text, s.mainKeyboard())

	profile, err := s.store.GetUserProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if !profile.Schedulable() {
		return nil
	}
	return s.resumeDeferred(ctx, userID, rec.Data.PendingDate())
}

// resumeDeferred starts today's session when a trigger fired while the user
// was busy in onboarding and today has not been skipped since.
func (s *Service) resumeDeferred(ctx context.Context, userID int64, pending string) error {
	if pending == "" {
		return nil
	}
	profile, err := s.store.GetUserProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	today := s.today(s.zoneOf(profile))
	if pending != today || skipsDate(profile, today) || profile.SessionStartedOn(today) {
		return nil
	}
	s.logger.InfoContext(ctx, "Starting session deferred during onboarding", "user_id", userID, "date", today)
	return s.startSession(ctx, userID, today, conversation.EventStartSession, "")
}

// ChangeTime reopens the time choice. It is refused while a session is open.
func (s *Service) ChangeTime(ctx context.Context, userID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	profile, err := s.store.GetUserProfile(ctx, userID)
	if err != nil {
		s.notify(ctx, userID, s.cfg.Messages.GeneralError, nil)
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil || !profile.TimezoneGroup.Valid {
		return s.register(ctx, userID)
	}

	rec, err := s.conversations.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	switch {
	case rec.State.InSession():
		s.notify(ctx, userID, s.cfg.Messages.ChangeTimeMidSession, s.mainKeyboard())
		return nil
	case rec.State == conversation.AwaitingRegion:
		return s.register(ctx, userID)
	case conversation.Can(rec.State, conversation.EventChangeTime):
		if _, err := s.conversations.Transition(ctx, userID, conversation.EventChangeTime, nil); err != nil {
			return fmt.Errorf("failed to open time choice: %w", err)
		}
	}

	s.notify(ctx, userID, s.cfg.Messages.ChangeTime, s.timeKeyboard())
	return nil
}

// Stop removes the trigger, then deactivates the profile and resets the
// conversation. The order guarantees no trigger outlives an active flag.
func (s *Service) Stop(ctx context.Context, userID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	s.triggers.Unschedule(userID)

	if err := s.store.UpsertUserProfile(ctx, userID, database.ProfileFields{
		ScheduleTime: ptr(""),
		Active:       ptr(false),
	}); err != nil {
		s.notify(ctx, userID, s.cfg.Messages.GeneralError, nil)
		return fmt.Errorf("failed to deactivate profile: %w", err)
	}
	if err := s.conversations.Clear(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "Failed to clear conversation on stop", "user_id", userID, "error", err)
	}

	s.logger.InfoContext(ctx, "User stopped daily questions", "user_id", userID)
	s.notify(ctx, userID, s.cfg.Messages.Stopped, s.mainKeyboard())
	return nil
}

// SkipToday suppresses today's session. A deferral recorded for today is
// dropped in the same step; a session already in progress continues.
func (s *Service) SkipToday(ctx context.Context, userID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	profile, err := s.store.GetUserProfile(ctx, userID)
	if err != nil {
		s.notify(ctx, userID, s.cfg.Messages.GeneralError, nil)
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if !profile.Schedulable() {
		s.notify(ctx, userID, s.cfg.Messages.NotConfigured, s.mainKeyboard())
		return nil
	}

	today := s.today(s.zoneOf(profile))
	if err := s.store.SetSkipDate(ctx, userID, today); err != nil {
		s.notify(ctx, userID, s.cfg.Messages.GeneralError, nil)
		return fmt.Errorf("failed to save skip date: %w", err)
	}

	data, err := s.conversations.Data(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}
	if data.PendingDate() == today {
		if err := s.conversations.UpdateData(ctx, userID, conversation.Data{conversation.KeyPendingDate: ""}); err != nil {
			return fmt.Errorf("failed to drop deferred session: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "User skipped today", "user_id", userID, "date", today)
	s.notify(ctx, userID, s.cfg.Messages.Skipped, s.mainKeyboard())
	return nil
}

// Help sends the usage text.
func (s *Service) Help(ctx context.Context, userID int64) error {
	s.notify(ctx, userID, s.cfg.Messages.Help, s.mainKeyboard())
	return nil
}
