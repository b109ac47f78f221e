package conversation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "goodlifebot:conversation:"

type redisStorage struct {
	rdb *goredis.Client
}

// NewRedisStorage keeps each conversation in a Redis hash.
func NewRedisStorage(rdb *goredis.Client) Storage {
	return &redisStorage{rdb: rdb}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func redisKey(userID int64) string {
	return redisKeyPrefix + strconv.FormatInt(userID, 10)
}

func (s *redisStorage) Load(ctx context.Context, userID int64) (Record, error) {
	fields, err := s.rdb.HGetAll(ctx, redisKey(userID)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("failed to load conversation for user %d: %w", userID, err)
	}
	if len(fields) == 0 {
		return idleRecord(), nil
	}

	state, err := ParseState(fields["state"])
	if err != nil {
		return Record{}, fmt.Errorf("failed to load conversation for user %d: %w", userID, err)
	}
	data, err := decodeData(fields["data"])
	if err != nil {
		return Record{}, fmt.Errorf("failed to load conversation for user %d: %w", userID, err)
	}
	updated, _ := time.Parse(time.RFC3339, fields["updated_at"])

	return Record{State: state, Data: data, UpdatedAt: updated}, nil
}

func (s *redisStorage) Save(ctx context.Context, userID int64, rec Record) error {
	raw, err := encodeData(rec.Data)
	if err != nil {
		return err
	}
	err = s.rdb.HSet(ctx, redisKey(userID), map[string]any{
		"state":      string(rec.State),
		"data":       raw,
		"updated_at": rec.UpdatedAt.UTC().Format(time.RFC3339),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to save conversation for user %d: %w", userID, err)
	}
	return nil
}

func (s *redisStorage) Delete(ctx context.Context, userID int64) error {
	if err := s.rdb.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation for user %d: %w", userID, err)
	}
	return nil
}
