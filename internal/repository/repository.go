package repository

import (
	"context"

	"github.com/RohanJose/Chat-APP/internal/domain"
)

type RoomRepository interface {
	Create(ctx context.Context, record *domain.RoomRecord) error
	GetByID(ctx context.Context, id string) (*domain.RoomRecord, error)
	End(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int64, error)
}

type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ClearRoom(ctx context.Context, roomID string) error
}
