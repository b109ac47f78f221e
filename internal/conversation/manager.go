package conversation

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"
)

// Manager is the read-through/write-through view of conversation records.
// It does no locking of its own; callers serialize per user with Locks.
type Manager struct {
	storage Storage
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewManager wraps storage. A nil clock means the real clock.
func NewManager(storage Storage, clock clockwork.Clock, logger *slog.Logger) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		storage: storage,
		clock:   clock,
		logger:  logger.With("component", "conversation"),
	}
}

// Get returns the full record of the user.
func (m *Manager) Get(ctx context.Context, userID int64) (Record, error) {
	return m.storage.Load(ctx, userID)
}

// State returns the user's current state.
func (m *Manager) State(ctx context.Context, userID int64) (State, error) {
	rec, err := m.storage.Load(ctx, userID)
	if err != nil {
		return "", err
	}
	return rec.State, nil
}

// SetState stores s without consulting the transition table.
func (m *Manager) SetState(ctx context.Context, userID int64, s State) error {
	if !s.Valid() {
		return fmt.Errorf("cannot set unknown conversation state %q", s)
	}
	rec, err := m.storage.Load(ctx, userID)
	if err != nil {
		return err
	}
	rec.State = s
	return m.save(ctx, userID, rec)
}

// Data returns a copy of the user's data bag.
func (m *Manager) Data(ctx context.Context, userID int64) (Data, error) {
	rec, err := m.storage.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return rec.Data.Clone(), nil
}

// UpdateData merges patch into the bag. An empty value removes the key.
func (m *Manager) UpdateData(ctx context.Context, userID int64, patch Data) error {
	rec, err := m.storage.Load(ctx, userID)
	if err != nil {
		return err
	}
	if rec.Data == nil {
		rec.Data = Data{}
	}
	for k, v := range patch {
		if v == "" {
			delete(rec.Data, k)
			continue
		}
		rec.Data[k] = v
	}
	return m.save(ctx, userID, rec)
}

// Clear resets the user to Idle with an empty bag.
func (m *Manager) Clear(ctx context.Context, userID int64) error {
	if err := m.storage.Delete(ctx, userID); err != nil {
		return err
	}
	m.logger.DebugContext(ctx, "Conversation cleared", "user_id", userID)
	return nil
}

// Transition applies ev to the stored state and saves the result in one
// write. A non-nil data replaces the bag; nil keeps it.
func (m *Manager) Transition(ctx context.Context, userID int64, ev Event, data Data) (State, error) {
	rec, err := m.storage.Load(ctx, userID)
	if err != nil {
		return "", err
	}

	next, err := Next(ctx, rec.State, ev)
	if err != nil {
		return rec.State, err
	}

	from := rec.State
	rec.State = next
	if data != nil {
		rec.Data = data.Clone()
	}
	if err := m.save(ctx, userID, rec); err != nil {
		return from, err
	}

	m.logger.DebugContext(ctx, "Conversation transition", "user_id", userID, "event", ev, "from", from, "to", next)
	return next, nil
}

func (m *Manager) save(ctx context.Context, userID int64, rec Record) error {
	rec.UpdatedAt = m.clock.Now()
	return m.storage.Save(ctx, userID, rec)
}
