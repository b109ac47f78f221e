package session

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/goodlifebot/internal/database"
)

// SweepStats summarizes one nudge sweep.
type SweepStats struct {
	Checked  int
	Eligible int
	Sent     int
	Failed   int
}

type sweepCounters struct {
	eligible, sent, failed atomic.Int64
}

// SweepInactive sends one re-engagement message to every active user whose
// last activity is older than the inactivity threshold and who was not
// nudged within the cooldown. Per-user failures are logged and skipped.
func (s *Service) SweepInactive(ctx context.Context) (SweepStats, error) {
	now := s.clock.Now()
	log := s.logger.With("sweep", "nudge")

	profiles, err := s.store.ListActiveUsersForNudge(ctx)
	if err != nil {
		return SweepStats{}, fmt.Errorf("failed to list nudge candidates: %w", err)
	}
	if len(profiles) == 0 {
		log.InfoContext(ctx, "No nudge candidates")
		return SweepStats{}, nil
	}

	text := s.nudgeText(ctx)

	var counters sweepCounters
	var g errgroup.Group
	g.SetLimit(max(s.cfg.Nudge.Concurrency, 1))

	for _, p := range profiles {
		g.Go(func() error {
			s.nudgeOne(ctx, p, now, text, &counters)
			return nil
		})
	}
	_ = g.Wait()

	stats := SweepStats{
		Checked:  len(profiles),
		Eligible: int(counters.eligible.Load()),
		Sent:     int(counters.sent.Load()),
		Failed:   int(counters.failed.Load()),
	}
	log.InfoContext(ctx, "Nudge sweep finished", "checked", stats.Checked, "eligible", stats.Eligible,
		"sent", stats.Sent, "failed", stats.Failed)
	return stats, nil
}

func (s *Service) nudgeOne(ctx context.Context, p *database.UserProfile, now time.Time, text string, c *sweepCounters) {
	if ctx.Err() != nil {
		return
	}
	if !s.nudgeEligible(ctx, p, now) {
		return
	}
	c.eligible.Add(1)

	if !s.notify(ctx, p.UserID, text, s.mainKeyboard()) {
		c.failed.Add(1)
		return
	}
	c.sent.Add(1)

	if err := s.store.SaveNudgeSent(ctx, p.UserID, now); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record nudge", "user_id", p.UserID, "error", err)
	}
}

// nudgeEligible applies the activity baseline, inactivity threshold and
// cooldown rules. Corrupt timestamps make the user ineligible.
func (s *Service) nudgeEligible(ctx context.Context, p *database.UserProfile, now time.Time) bool {
	if !p.IsActive {
		return false
	}

	activity, ok, err := database.ParseTimestamp(p.LastActivityAt)
	if err != nil {
		s.logger.WarnContext(ctx, "Skipping nudge for corrupt activity timestamp", "user_id", p.UserID, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if now.Sub(activity) < days(s.cfg.Nudge.InactivityDays) {
		return false
	}

	nudged, ok, err := database.ParseTimestamp(p.LastNudgeAt)
	if err != nil {
		s.logger.WarnContext(ctx, "Skipping nudge for corrupt nudge timestamp", "user_id", p.UserID, "error", err)
		return false
	}
	if ok && now.Sub(nudged) < days(s.cfg.Nudge.CooldownDays) {
		return false
	}
	return true
}

// nudgeText asks the writer for a fresh text once per sweep and falls back
// to the configured message.
func (s *Service) nudgeText(ctx context.Context) string {
	if s.nudgeWriter == nil {
		return s.cfg.Messages.Nudge
	}
	text, err := s.nudgeWriter.NudgeText(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Nudge text generation failed, using configured text", "error", err)
		return s.cfg.Messages.Nudge
	}
	if strings.TrimSpace(text) == "" {
		return s.cfg.Messages.Nudge
	}
	return strings.TrimSpace(text)
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
