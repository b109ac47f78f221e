package database

import (
	"database/sql"
	"fmt"
	"time"
)

// TimestampLayout is the TEXT encoding of every stored instant (always UTC).
const TimestampLayout = time.RFC3339

// UserProfile is one row of the users table. Optional columns stay as
// NullString so that corrupt values surface at the point of use instead of
// failing the whole scan.
type UserProfile struct {
	UserID         int64          `db:"user_id"`
	ScheduleTime   sql.NullString `db:"schedule_time"`
	TimezoneGroup  sql.NullString `db:"timezone_group"`
	IsActive       bool           `db:"is_active"`
	SkipDate       sql.NullString `db:"skip_date"`
	LastActivityAt sql.NullString `db:"last_activity_at"`
	LastNudgeAt    sql.NullString `db:"last_nudge_at"`
	CreatedAt      string         `db:"created_at"`
	UpdatedAt      string         `db:"updated_at"`

	// LastSessionDate is the user-local date of the most recently opened session.
	LastSessionDate sql.NullString `db:"last_session_date"`
}

// Schedulable reports whether the profile should own a live trigger.
func (p *UserProfile) Schedulable() bool {
	return p != nil && p.IsActive && p.ScheduleTime.Valid && p.ScheduleTime.String != ""
}

// SessionStartedOn reports whether a session was already opened for date.
func (p *UserProfile) SessionStartedOn(date string) bool {
	return p != nil && p.LastSessionDate.Valid && p.LastSessionDate.String == date
}

// ProfileFields carries a partial profile update. Nil fields are left
// untouched; a non-nil pointer to "" stores NULL.
type ProfileFields struct {
	ScheduleTime  *string
	TimezoneGroup *string
	Active        *bool
}

// Answer is one immutable entry of the answer log.
type Answer struct {
	ID          int64  `db:"id"`
	UserID      int64  `db:"user_id"`
	SessionDate string `db:"session_date"`
	QIndex      int    `db:"q_index"`
	Question    string `db:"question"`
	Answer      string `db:"answer"`
	CreatedAt   string `db:"created_at"`
}

// FormatTimestamp encodes t for storage.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp decodes an optional stored instant. ok is false when the
// column is NULL or empty; err is set when the value is present but corrupt.
func ParseTimestamp(v sql.NullString) (t time.Time, ok bool, err error) {
	if !v.Valid || v.String == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(TimestampLayout, v.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt timestamp %q: %w", v.String, err)
	}
	return t.UTC(), true, nil
}
