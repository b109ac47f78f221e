// Package session runs the daily question sessions: it decides what a
// trigger firing does, collects answers step by step, walks users through
// onboarding and re-engages users who went quiet.
//
// Every entry point that reads or writes a user's conversation holds that
// user's lock for its whole duration, so a trigger firing and a reply from
// the same user are never applied concurrently.
package session

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/goodlifebot/internal/config"
	"github.com/edgard/goodlifebot/internal/conversation"
	"github.com/edgard/goodlifebot/internal/database"
	"github.com/edgard/goodlifebot/internal/domain"
)

// Messenger delivers a text to a user. A nil keyboard leaves the user's
// current reply keyboard in place.
type Messenger interface {
	Send(ctx context.Context, userID int64, text string, kb *Keyboard) error
}

// Triggers is the per-user daily trigger registry.
type Triggers interface {
	Schedule(userID int64, at domain.TimeOfDay, loc *time.Location) error
	Unschedule(userID int64)
}

// NudgeWriter composes a re-engagement text.
type NudgeWriter interface {
	NudgeText(ctx context.Context) (string, error)
}

// Deps carries the collaborators of a Service. NudgeWriter and Clock are optional.
type Deps struct {
	Logger        *slog.Logger
	Config        *config.Config
	Store         database.Store
	Conversations *conversation.Manager
	Locks         *conversation.Locks
	Triggers      Triggers
	Messenger     Messenger
	Zones         *domain.Zones
	Clock         clockwork.Clock
	NudgeWriter   NudgeWriter
}

// Service implements the daily session flow.
type Service struct {
	logger        *slog.Logger
	cfg           *config.Config
	store         database.Store
	conversations *conversation.Manager
	locks         *conversation.Locks
	triggers      Triggers
	messenger     Messenger
	zones         *domain.Zones
	clock         clockwork.Clock
	nudgeWriter   NudgeWriter
}

// NewService wires a Service from deps.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	locks := deps.Locks
	if locks == nil {
		locks = conversation.NewLocks()
	}
	return &Service{
		logger:        logger.With("component", "session"),
		cfg:           deps.Config,
		store:         deps.Store,
		conversations: deps.Conversations,
		locks:         locks,
		triggers:      deps.Triggers,
		messenger:     deps.Messenger,
		zones:         deps.Zones,
		clock:         clock,
		nudgeWriter:   deps.NudgeWriter,
	}
}

// notify sends text and reports whether it was delivered. Failures are
// logged here and never propagated.
func (s *Service) notify(ctx context.Context, userID int64, text string, kb *Keyboard) bool {
	if err := s.messenger.Send(ctx, userID, text, kb); err != nil {
		s.logger.WarnContext(ctx, "Failed to deliver message", "user_id", userID, "error", err)
		return false
	}
	return true
}

// zoneOf resolves the profile's region, falling back to the default zone.
func (s *Service) zoneOf(p *database.UserProfile) *time.Location {
	if p == nil {
		return s.zones.Fallback()
	}
	return s.zones.Resolve(p.TimezoneGroup.String)
}

// today is the current calendar date in loc.
func (s *Service) today(loc *time.Location) string {
	return domain.DateOf(s.clock.Now(), loc).String()
}

func skipsDate(p *database.UserProfile, date string) bool {
	return p != nil && p.SkipDate.Valid && p.SkipDate.String == date
}
