package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RohanJose/Chat-APP/internal/domain"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
	ErrUserNotFound = errors.New("user not found")
)

type InMemoryRoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]*domain.RoomRecord
}

func NewInMemoryRoomRepository() *InMemoryRoomRepository {
	return &InMemoryRoomRepository{
		rooms: make(map[string]*domain.RoomRecord),
	}
}

func (r *InMemoryRoomRepository) Create(ctx context.Context, record *domain.RoomRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return errors.New("record is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[record.ID]; ok {
		return ErrRoomExists
	}

	clone := *record
	clone.Participants = append([]domain.RoomMember(nil), record.Participants...)
	r.rooms[record.ID] = &clone
	return nil
}

func (r *InMemoryRoomRepository) GetByID(ctx context.Context, id string) (*domain.RoomRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}

	clone := *record
	clone.Participants = append([]domain.RoomMember(nil), record.Participants...)
	return &clone, nil
}

func (r *InMemoryRoomRepository) End(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}

	now := time.Now().UTC()
	record.Status = domain.RoomStatusEnded
	record.EndedAt = &now
	return nil
}

func (r *InMemoryRoomRepository) CountActive(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, record := range r.rooms {
		if record.Status == domain.RoomStatusActive {
			count++
		}
	}
	return count, nil
}

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

func (r *InMemoryUserRepository) ClearRoom(ctx context.Context, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.CurrentRoom == roomID {
			user.CurrentRoom = ""
			user.IsWaiting = false
		}
	}
	return nil
}
