package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type sqlStorage struct {
	db *sqlx.DB
}

// NewSQLStorage keeps conversations in the conversations table of db.
func NewSQLStorage(db *sqlx.DB) Storage {
	return &sqlStorage{db: db}
}

type conversationRow struct {
	UserID    int64  `db:"user_id"`
	State     string `db:"state"`
	Data      string `db:"data"`
	UpdatedAt string `db:"updated_at"`
}

func (s *sqlStorage) Load(ctx context.Context, userID int64) (Record, error) {
	var row conversationRow
	err := s.db.GetContext(ctx, &row,
		`SELECT user_id, state, data, updated_at FROM conversations WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return idleRecord(), nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load conversation for user %d: %w", userID, err)
	}

	state, err := ParseState(row.State)
	if err != nil {
		return Record{}, fmt.Errorf("failed to load conversation for user %d: %w", userID, err)
	}
	data, err := decodeData(row.Data)
	if err != nil {
		return Record{}, fmt.Errorf("failed to load conversation for user %d: %w", userID, err)
	}
	updated, _ := time.Parse(time.RFC3339, row.UpdatedAt)

	return Record{State: state, Data: data, UpdatedAt: updated}, nil
}

func (s *sqlStorage) Save(ctx context.Context, userID int64, rec Record) error {
	raw, err := encodeData(rec.Data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (user_id, state, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET state = excluded.state, data = excluded.data, updated_at = excluded.updated_at`,
		userID, string(rec.State), raw, rec.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save conversation for user %d: %w", userID, err)
	}
	return nil
}

func (s *sqlStorage) Delete(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete conversation for user %d: %w", userID, err)
	}
	return nil
}
