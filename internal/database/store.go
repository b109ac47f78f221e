package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the durable record operations used by the bot.
// Every method is atomic on its own; none of them spans users.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetUserProfile returns the profile for userID, or nil, nil if none exists.
	GetUserProfile(ctx context.Context, userID int64) (*UserProfile, error)

	// UpsertUserProfile creates the profile if needed and applies fields.
	UpsertUserProfile(ctx context.Context, userID int64, fields ProfileFields) error

	SetActive(ctx context.Context, userID int64, active bool) error
	SetSkipDate(ctx context.Context, userID int64, date string) error
	ClearSkipDate(ctx context.Context, userID int64) error

	// MarkSessionStarted records date as the last day a session was opened.
	MarkSessionStarted(ctx context.Context, userID int64, date string) error

	// TouchActivity records that the user interacted at the given instant.
	TouchActivity(ctx context.Context, userID int64, at time.Time) error

	// SaveNudgeSent records a delivered re-engagement message.
	SaveNudgeSent(ctx context.Context, userID int64, at time.Time) error

	// ListActiveSchedulableUsers returns active users with a schedule time.
	ListActiveSchedulableUsers(ctx context.Context) ([]*UserProfile, error)

	// ListActiveUsersForNudge returns active users with an activity baseline.
	// Threshold and cooldown filtering is left to the caller.
	ListActiveUsersForNudge(ctx context.Context) ([]*UserProfile, error)

	// AppendAnswer inserts an answer record and sets its ID.
	AppendAnswer(ctx context.Context, answer *Answer) error

	// ListAnswers returns the answers of one session in insertion order.
	ListAnswers(ctx context.Context, userID int64, sessionDate string) ([]*Answer, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

const userColumns = `user_id, schedule_time, timezone_group, is_active, skip_date,
	last_activity_at, last_nudge_at, last_session_date, created_at, updated_at`

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetUserProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	var profile UserProfile
	err := s.db.GetContext(ctx, &profile, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user profile found", "user_id", userID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching user profile",
			"user_id", userID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user profile by ID", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user profile for user ID %d: %w", userID, err)
	}

	return &profile, nil
}

func (s *sqlxStore) UpsertUserProfile(ctx context.Context, userID int64, fields ProfileFields) error {
	var sets []string
	var args []any

	if fields.ScheduleTime != nil {
		sets = append(sets, "schedule_time = ?")
		args = append(args, nullIfEmpty(*fields.ScheduleTime))
	}
	if fields.TimezoneGroup != nil {
		sets = append(sets, "timezone_group = ?")
		args = append(args, nullIfEmpty(*fields.TimezoneGroup))
	}
	if fields.Active != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *fields.Active)
	}

	return s.updateUser(ctx, userID, "upsert profile", sets, args)
}

func (s *sqlxStore) SetActive(ctx context.Context, userID int64, active bool) error {
	return s.updateUser(ctx, userID, "set active", []string{"is_active = ?"}, []any{active})
}

func (s *sqlxStore) SetSkipDate(ctx context.Context, userID int64, date string) error {
	if date == "" {
		return fmt.Errorf("skip date cannot be empty")
	}
	return s.updateUser(ctx, userID, "set skip date", []string{"skip_date = ?"}, []any{date})
}

func (s *sqlxStore) ClearSkipDate(ctx context.Context, userID int64) error {
	return s.updateUser(ctx, userID, "clear skip date", []string{"skip_date = NULL"}, nil)
}

func (s *sqlxStore) MarkSessionStarted(ctx context.Context, userID int64, date string) error {
	if date == "" {
		return fmt.Errorf("session date cannot be empty")
	}
	return s.updateUser(ctx, userID, "mark session started", []string{"last_session_date = ?"}, []any{date})
}

func (s *sqlxStore) TouchActivity(ctx context.Context, userID int64, at time.Time) error {
	return s.updateUser(ctx, userID, "touch activity", []string{"last_activity_at = ?"}, []any{FormatTimestamp(at)})
}

func (s *sqlxStore) SaveNudgeSent(ctx context.Context, userID int64, at time.Time) error {
	return s.updateUser(ctx, userID, "save nudge", []string{"last_nudge_at = ?"}, []any{FormatTimestamp(at)})
}

// updateUser makes sure the users row exists and applies the given SET
// clauses, both inside one transaction.
func (s *sqlxStore) updateUser(ctx context.Context, userID int64, op string, sets []string, args []any) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}

	now := FormatTimestamp(time.Now())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "op", op, "user_id", userID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (user_id, is_active, created_at, updated_at) VALUES (?, 0, ?, ?)
		 ON CONFLICT(user_id) DO NOTHING`,
		userID, now, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error ensuring user row", "op", op, "user_id", userID, "error", err)
		return fmt.Errorf("failed to %s for user ID %d: %w", op, userID, err)
	}

	query := `UPDATE users SET ` + strings.Join(append(sets, "updated_at = ?"), ", ") + ` WHERE user_id = ?`
	if _, err = tx.ExecContext(ctx, query, append(args, now, userID)...); err != nil {
		s.logger.ErrorContext(ctx, "Error updating user", "op", op, "user_id", userID, "error", err)
		return fmt.Errorf("failed to %s for user ID %d: %w", op, userID, err)
	}

	if err = tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "op", op, "user_id", userID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "User updated", "op", op, "user_id", userID)
	return nil
}

func (s *sqlxStore) ListActiveSchedulableUsers(ctx context.Context) ([]*UserProfile, error) {
	return s.listUsers(ctx, "schedulable",
		`SELECT `+userColumns+` FROM users
		 WHERE is_active = 1 AND schedule_time IS NOT NULL AND schedule_time != ''
		 ORDER BY user_id`)
}

func (s *sqlxStore) ListActiveUsersForNudge(ctx context.Context) ([]*UserProfile, error) {
	return s.listUsers(ctx, "nudge candidates",
		`SELECT `+userColumns+` FROM users
		 WHERE is_active = 1 AND last_activity_at IS NOT NULL AND last_activity_at != ''
		 ORDER BY user_id`)
}

func (s *sqlxStore) listUsers(ctx context.Context, what, query string) ([]*UserProfile, error) {
	var profiles []*UserProfile
	if err := s.db.SelectContext(ctx, &profiles, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing users", "list", what, "error", err)
		return nil, fmt.Errorf("failed to list %s users: %w", what, err)
	}
	return profiles, nil
}

func (s *sqlxStore) AppendAnswer(ctx context.Context, answer *Answer) error {
	if answer == nil {
		return fmt.Errorf("cannot append nil answer")
	}
	if answer.UserID == 0 {
		return fmt.Errorf("answer must have a non-zero user_id")
	}
	if answer.QIndex < 1 || answer.QIndex > 4 {
		return fmt.Errorf("answer q_index %d out of range 1..4", answer.QIndex)
	}
	if answer.SessionDate == "" {
		return fmt.Errorf("answer must have a session_date")
	}
	if answer.CreatedAt == "" {
		answer.CreatedAt = FormatTimestamp(time.Now())
	}

	result, err := s.db.NamedExecContext(ctx, `
		INSERT INTO answers (user_id, session_date, q_index, question, answer, created_at)
		VALUES (:user_id, :session_date, :q_index, :question, :answer, :created_at)`, answer)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error appending answer",
			"user_id", answer.UserID, "session_date", answer.SessionDate, "q_index", answer.QIndex, "error", err)
		return fmt.Errorf("failed to append answer (user %d, step %d): %w", answer.UserID, answer.QIndex, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not read inserted answer id", "error", err)
		return nil
	}
	answer.ID = id
	return nil
}

func (s *sqlxStore) ListAnswers(ctx context.Context, userID int64, sessionDate string) ([]*Answer, error) {
	var answers []*Answer
	err := s.db.SelectContext(ctx, &answers, `
		SELECT id, user_id, session_date, q_index, question, answer, created_at
		FROM answers WHERE user_id = ? AND session_date = ? ORDER BY id`, userID, sessionDate)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing answers", "user_id", userID, "session_date", sessionDate, "error", err)
		return nil, fmt.Errorf("failed to list answers for user %d on %s: %w", userID, sessionDate, err)
	}
	return answers, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM cannot run inside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
