package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/foxyhq/foxyfetch/internal/callback"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	execTag  pgconn.CommandTag
	execErr  error
	rowScan  func(dest ...any) error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return fakeRow{scan: f.rowScan}
}

func TestRequestCreate(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := NewRequestRepository(db)

	interactionID := int64(13)
	req := &Request{
		ID:            uuid.New(),
		UserID:        42,
		ChatID:        42,
		InteractionID: &interactionID,
		URL:           "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Platform:      "YouTube",
		Quality:       "h720",
		Status:        "requested",
	}
	require.NoError(t, repo.Create(context.Background(), req))
	require.Len(t, db.execArgs, 1)
	require.Equal(t, req.ID, db.execArgs[0][0])
	require.Equal(t, &interactionID, db.execArgs[0][3])
	require.Equal(t, "requested", db.execArgs[0][7])
}

func TestRequestCreateWithoutInteraction(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := NewRequestRepository(db)

	req := &Request{ID: uuid.New(), UserID: 42, ChatID: 42, Status: "requested"}
	require.NoError(t, repo.Create(context.Background(), req))
	require.Nil(t, db.execArgs[0][3])
}

func TestRequestSetStatusNotFound(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewRequestRepository(db)

	err := repo.SetStatus(context.Background(), uuid.New(), "downloading")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRequestSetFailedKeepsReasonAndSize(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewRequestRepository(db)

	id := uuid.New()
	require.NoError(t, repo.SetFailed(context.Background(), id, "failed", "media is private", 2048))
	require.Len(t, db.execArgs, 1)
	require.Equal(t, []any{id, "failed", "media is private", int64(2048)}, db.execArgs[0])
}

func TestRequestSetCompletedRecordsSize(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewRequestRepository(db)

	id := uuid.New()
	require.NoError(t, repo.SetCompleted(context.Background(), id, 9000))
	require.Contains(t, db.execSQL[0], "file_size")
	require.Equal(t, []any{id, int64(9000)}, db.execArgs[0])
}

func TestLogInteractionReturnsID(t *testing.T) {
	db := &fakeDB{rowScan: func(dest ...any) error {
		*(dest[0].(*int64)) = 77
		return nil
	}}
	repo := NewUserRepository(db)

	id, err := repo.LogInteraction(context.Background(), Interaction{UserID: 9, ChatID: 9, Kind: InteractionCallback})
	require.NoError(t, err)
	require.Equal(t, int64(77), id)
}

func TestRequestGetByIDNotFound(t *testing.T) {
	db := &fakeDB{rowScan: func(...any) error { return pgx.ErrNoRows }}
	repo := NewRequestRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCallbackCacheGetMiss(t *testing.T) {
	db := &fakeDB{rowScan: func(...any) error { return pgx.ErrNoRows }}
	cache := NewCallbackCache(testLogger(), db, time.Hour)

	_, err := cache.Get(context.Background(), "abcdef012345")
	require.ErrorIs(t, err, callback.ErrUnknownReference)
}

func TestCallbackCachePutSetsExpiry(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	cache := NewCallbackCache(testLogger(), db, time.Hour)

	before := time.Now()
	require.NoError(t, cache.Put(context.Background(), "abcdef012345", "https://example.com/v"))
	require.Len(t, db.execArgs, 1)

	expires, ok := db.execArgs[0][2].(time.Time)
	require.True(t, ok)
	require.WithinDuration(t, before.Add(time.Hour), expires, time.Minute)
}

func TestUserUpsert(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := NewUserRepository(db)

	err := repo.Upsert(context.Background(), &User{ID: 7, Username: "fox"})
	require.NoError(t, err)
	require.Contains(t, db.execSQL[0], "ON CONFLICT (id) DO UPDATE")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
