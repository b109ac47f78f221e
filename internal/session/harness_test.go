package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/edgard/goodlifebot/internal/config"
	"github.com/edgard/goodlifebot/internal/conversation"
	"github.com/edgard/goodlifebot/internal/database"
	"github.com/edgard/goodlifebot/internal/domain"
	"github.com/edgard/goodlifebot/internal/session"
)

var errUnreachable = errors.New("bot was blocked by the user")

type sentMessage struct {
	UserID   int64
	Text     string
	Keyboard *session.Keyboard
}

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]bool
}

func (m *fakeMessenger) Send(_ context.Context, userID int64, text string, kb *session.Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[userID] {
		return errUnreachable
	}
	m.sent = append(m.sent, sentMessage{UserID: userID, Text: text, Keyboard: kb})
	return nil
}

func (m *fakeMessenger) fail(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor == nil {
		m.failFor = map[int64]bool{}
	}
	m.failFor[userID] = true
}

func (m *fakeMessenger) texts(userID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sent {
		if s.UserID == userID {
			out = append(out, s.Text)
		}
	}
	return out
}

func (m *fakeMessenger) last(userID int64) string {
	texts := m.texts(userID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type installedTrigger struct {
	At  domain.TimeOfDay
	Loc *time.Location
}

type fakeTriggers struct {
	mu      sync.Mutex
	entries map[int64]installedTrigger
	failErr error
}

func newFakeTriggers() *fakeTriggers {
	return &fakeTriggers{entries: map[int64]installedTrigger{}}
}

func (f *fakeTriggers) Schedule(userID int64, at domain.TimeOfDay, loc *time.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.entries[userID] = installedTrigger{At: at, Loc: loc}
	return nil
}

func (f *fakeTriggers) Unschedule(userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, userID)
}

func (f *fakeTriggers) get(userID int64) (installedTrigger, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.entries[userID]
	return t, ok
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	cfg      *config.Config
	store    database.Store
	storage  conversation.Storage
	conv     *conversation.Manager
	clock    *clockwork.FakeClock
	msgs     *fakeMessenger
	triggers *fakeTriggers
	zones    *domain.Zones
	svc      *session.Service
}

// evening is 21:00 in Moscow on 2026-06-01.
var evening = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  token: test-token\n"), 0o600))
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	return cfg
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := loadTestConfig(t)
	db, err := database.NewDB(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	zones, err := domain.NewZones(cfg.Regions(), cfg.Session.DefaultTimezone)
	require.NoError(t, err)

	h := &harness{
		t:        t,
		ctx:      context.Background(),
		cfg:      cfg,
		store:    database.NewStore(db, nil),
		storage:  conversation.NewSQLStorage(db),
		clock:    clockwork.NewFakeClockAt(evening.Add(-8 * time.Hour)),
		msgs:     &fakeMessenger{},
		triggers: newFakeTriggers(),
		zones:    zones,
	}
	h.restart(nil)
	return h
}

// restart rebuilds the service over the same durable storage.
func (h *harness) restart(writer session.NudgeWriter) {
	h.conv = conversation.NewManager(h.storage, h.clock, nil)
	h.svc = session.NewService(session.Deps{
		Config:        h.cfg,
		Store:         h.store,
		Conversations: h.conv,
		Triggers:      h.triggers,
		Messenger:     h.msgs,
		Zones:         h.zones,
		Clock:         h.clock,
		NudgeWriter:   writer,
	})
}

func (h *harness) onboard(userID int64, region, at string) {
	h.t.Helper()
	require.NoError(h.t, h.svc.Register(h.ctx, userID))
	require.NoError(h.t, h.svc.Dispatch(h.ctx, userID, region))
	require.NoError(h.t, h.svc.Dispatch(h.ctx, userID, at))
}

func (h *harness) reply(userID int64, texts ...string) {
	h.t.Helper()
	for _, text := range texts {
		require.NoError(h.t, h.svc.Dispatch(h.ctx, userID, text))
	}
}

func (h *harness) record(userID int64) conversation.Record {
	h.t.Helper()
	rec, err := h.conv.Get(h.ctx, userID)
	require.NoError(h.t, err)
	return rec
}

func (h *harness) profile(userID int64) *database.UserProfile {
	h.t.Helper()
	p, err := h.store.GetUserProfile(h.ctx, userID)
	require.NoError(h.t, err)
	return p
}

func (h *harness) answers(userID int64, date string) []*database.Answer {
	h.t.Helper()
	a, err := h.store.ListAnswers(h.ctx, userID, date)
	require.NoError(h.t, err)
	return a
}

func (h *harness) setClock(at time.Time) {
	h.clock.Advance(at.Sub(h.clock.Now()))
}
