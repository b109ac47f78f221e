package database_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/goodlifebot/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	return database.NewStore(db, nil)
}

func ptr[T any](v T) *T { return &v }

func TestNewDBIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "twice.db")
	first, err := database.NewDB(path)
	require.NoError(t, err)
	database.CloseDB(first)

	second, err := database.NewDB(path)
	require.NoError(t, err)
	database.CloseDB(second)
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/data/bot.db", database.ExtractDBNameFromPath("file:/data/bot.db?_pragma=busy_timeout(5000)"))
	assert.Equal(t, "storage.db", database.ExtractDBNameFromPath("storage.db"))
	assert.Equal(t, "my db.db", database.ExtractDBNameFromPath("file:my%20db.db"))
}

func TestUserProfileLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	profile, err := store.GetUserProfile(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, profile)

	require.NoError(t, store.UpsertUserProfile(ctx, 42, database.ProfileFields{
		TimezoneGroup: ptr("Москва"),
		Active:        ptr(true),
	}))

	profile, err = store.GetUserProfile(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.True(t, profile.IsActive)
	assert.Equal(t, "Москва", profile.TimezoneGroup.String)
	assert.False(t, profile.ScheduleTime.Valid)
	assert.False(t, profile.Schedulable())
	assert.NotEmpty(t, profile.CreatedAt)

	require.NoError(t, store.UpsertUserProfile(ctx, 42, database.ProfileFields{ScheduleTime: ptr("21:00")}))
	profile, err = store.GetUserProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "21:00", profile.ScheduleTime.String)
	assert.Equal(t, "Москва", profile.TimezoneGroup.String, "untouched fields survive")
	assert.True(t, profile.Schedulable())

	require.NoError(t, store.UpsertUserProfile(ctx, 42, database.ProfileFields{ScheduleTime: ptr("")}))
	profile, err = store.GetUserProfile(ctx, 42)
	require.NoError(t, err)
	assert.False(t, profile.ScheduleTime.Valid, "empty string clears the column")

	require.NoError(t, store.SetActive(ctx, 42, false))
	profile, err = store.GetUserProfile(ctx, 42)
	require.NoError(t, err)
	assert.False(t, profile.IsActive)
}

func TestSkipDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SetSkipDate(ctx, 7, "2026-05-01"))
	profile, err := store.GetUserProfile(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01", profile.SkipDate.String)

	require.NoError(t, store.ClearSkipDate(ctx, 7))
	profile, err = store.GetUserProfile(ctx, 7)
	require.NoError(t, err)
	assert.False(t, profile.SkipDate.Valid)

	require.Error(t, store.SetSkipDate(ctx, 7, ""))
}

func TestMarkSessionStarted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	profile, err := store.GetUserProfile(ctx, 8)
	require.NoError(t, err)
	assert.False(t, profile.SessionStartedOn("2026-05-01"), "nil profile started nothing")

	require.NoError(t, store.MarkSessionStarted(ctx, 8, "2026-05-01"))
	profile, err = store.GetUserProfile(ctx, 8)
	require.NoError(t, err)
	assert.True(t, profile.SessionStartedOn("2026-05-01"))
	assert.False(t, profile.SessionStartedOn("2026-05-02"))

	require.NoError(t, store.MarkSessionStarted(ctx, 8, "2026-05-02"))
	profile, err = store.GetUserProfile(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-02", profile.LastSessionDate.String)

	require.Error(t, store.MarkSessionStarted(ctx, 8, ""))
}

func TestActivityAndNudgeTimestamps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	at := time.Date(2026, 4, 2, 9, 30, 0, 0, time.FixedZone("MSK", 3*3600))
	require.NoError(t, store.TouchActivity(ctx, 5, at))
	require.NoError(t, store.SaveNudgeSent(ctx, 5, at.Add(time.Hour)))

	profile, err := store.GetUserProfile(ctx, 5)
	require.NoError(t, err)

	activity, ok, err := database.ParseTimestamp(profile.LastActivityAt)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, activity.Equal(at))
	assert.Equal(t, time.UTC, activity.Location())

	nudge, ok, err := database.ParseTimestamp(profile.LastNudgeAt)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, nudge.Equal(at.Add(time.Hour)))
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	_, ok, err := database.ParseTimestamp(sql.NullString{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = database.ParseTimestamp(sql.NullString{String: "yesterday", Valid: true})
	require.Error(t, err)
	assert.False(t, ok)
}

func TestListUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now()

	// 1: active with schedule and activity
	require.NoError(t, store.UpsertUserProfile(ctx, 1, database.ProfileFields{ScheduleTime: ptr("20:00"), Active: ptr(true)}))
	require.NoError(t, store.TouchActivity(ctx, 1, now))
	// 2: active without schedule, no activity
	require.NoError(t, store.UpsertUserProfile(ctx, 2, database.ProfileFields{Active: ptr(true)}))
	// 3: inactive with schedule and activity
	require.NoError(t, store.UpsertUserProfile(ctx, 3, database.ProfileFields{ScheduleTime: ptr("22:00"), Active: ptr(false)}))
	require.NoError(t, store.TouchActivity(ctx, 3, now))

	schedulable, err := store.ListActiveSchedulableUsers(ctx)
	require.NoError(t, err)
	require.Len(t, schedulable, 1)
	assert.Equal(t, int64(1), schedulable[0].UserID)

	candidates, err := store.ListActiveUsersForNudge(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(1), candidates[0].UserID)
}

func TestAnswers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	for i, text := range []string{"A", "B", "C", "D"} {
		a := &database.Answer{UserID: 9, SessionDate: "2026-05-01", QIndex: i + 1, Question: "q", Answer: text}
		require.NoError(t, store.AppendAnswer(ctx, a))
		assert.NotZero(t, a.ID)
	}
	require.NoError(t, store.AppendAnswer(ctx, &database.Answer{UserID: 9, SessionDate: "2026-05-02", QIndex: 1, Question: "q", Answer: "next"}))

	answers, err := store.ListAnswers(ctx, 9, "2026-05-01")
	require.NoError(t, err)
	require.Len(t, answers, 4)
	for i, a := range answers {
		assert.Equal(t, i+1, a.QIndex)
	}
	assert.Equal(t, "D", answers[3].Answer)

	require.Error(t, store.AppendAnswer(ctx, &database.Answer{UserID: 9, SessionDate: "2026-05-01", QIndex: 5}))
	require.Error(t, store.AppendAnswer(ctx, nil))
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	require.NoError(t, store.RunSQLMaintenance(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, store.RunSQLMaintenance(ctx), context.Canceled)
}
