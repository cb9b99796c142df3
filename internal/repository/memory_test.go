package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/RohanJose/Chat-APP/internal/domain"
	"github.com/RohanJose/Chat-APP/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id string) *domain.RoomRecord {
	return &domain.RoomRecord{
		ID:     id,
		Mode:   domain.ModeText,
		Status: domain.RoomStatusActive,
		Participants: []domain.RoomMember{
			{ID: "a", Username: "Alice"},
			{ID: "b", Username: "Bob"},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestInMemoryRoomRepository_CreateAndGet(t *testing.T) {
	repo := repository.NewInMemoryRoomRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testRecord("r1")))
	assert.ErrorIs(t, repo.Create(ctx, testRecord("r1")), repository.ErrRoomExists)

	record, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusActive, record.Status)
	assert.Len(t, record.Participants, 2)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
}

func TestInMemoryRoomRepository_End(t *testing.T) {
	repo := repository.NewInMemoryRoomRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testRecord("r1")))
	require.NoError(t, repo.End(ctx, "r1"))

	record, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusEnded, record.Status)
	require.NotNil(t, record.EndedAt)

	assert.ErrorIs(t, repo.End(ctx, "missing"), repository.ErrRoomNotFound)
}

func TestInMemoryRoomRepository_CountActive(t *testing.T) {
	repo := repository.NewInMemoryRoomRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testRecord("r1")))
	require.NoError(t, repo.Create(ctx, testRecord("r2")))
	require.NoError(t, repo.End(ctx, "r1"))

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInMemoryUserRepository_UpsertAndClearRoom(t *testing.T) {
	repo := repository.NewInMemoryUserRepository()
	ctx := context.Background()

	user := domain.NewUser("u1", "Alice", domain.ModeText)
	user.CurrentRoom = "r1"
	require.NoError(t, repo.Upsert(ctx, user))

	user.Username = "Alice2"
	require.NoError(t, repo.Upsert(ctx, user))

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice2", got.Username)
	assert.Equal(t, "r1", got.CurrentRoom)

	require.NoError(t, repo.ClearRoom(ctx, "r1"))
	got, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.CurrentRoom)
	assert.False(t, got.IsWaiting)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
