package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Record is the persisted form of one user's conversation.
type Record struct {
	State     State
	Data      Data
	UpdatedAt time.Time
}

func idleRecord() Record {
	return Record{State: Idle, Data: Data{}}
}

// Storage is a keyed durable store of conversation records.
// Load of an unknown user yields an Idle record with an empty bag.
type Storage interface {
	Load(ctx context.Context, userID int64) (Record, error)
	Save(ctx context.Context, userID int64, rec Record) error
	Delete(ctx context.Context, userID int64) error
}

func encodeData(d Data) (string, error) {
	if d == nil {
		d = Data{}
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to encode conversation data: %w", err)
	}
	return string(raw), nil
}

func decodeData(raw string) (Data, error) {
	d := Data{}
	if raw == "" {
		return d, nil
	}
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("failed to decode conversation data: %w", err)
	}
	return d, nil
}
