package repository

import (
	"context"
	"errors"
	"time"

	"github.com/RohanJose/Chat-APP/internal/domain"
	"github.com/RohanJose/Chat-APP/internal/repository/model"
	"gorm.io/gorm"
)

type PostgresRoomRepository struct {
	db *gorm.DB
}

func NewPostgresRoomRepository(db *gorm.DB) *PostgresRoomRepository {
	return &PostgresRoomRepository{db: db}
}

func (r *PostgresRoomRepository) Create(ctx context.Context, record *domain.RoomRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return errors.New("record is nil")
	}

	roomModel := toModelRoom(record)

	if err := r.db.WithContext(ctx).Create(roomModel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRoomExists
		}
		return err
	}
	return nil
}

func (r *PostgresRoomRepository) GetByID(ctx context.Context, id string) (*domain.RoomRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var room model.Room
	err := r.db.WithContext(ctx).Preload("Participants").First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	return toDomainRoom(&room), nil
}

func (r *PostgresRoomRepository) End(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&model.Room{}).Where("id = ?", id).Updates(map[string]any{
		"status":   string(domain.RoomStatusEnded),
		"ended_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) CountActive(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&model.Room{}).
		Where("status = ?", string(domain.RoomStatusActive)).
		Count(&count).Error
	return count, err
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	userModel := toModelUser(user)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"username":    userModel.Username,
			"mode":        userModel.Mode,
			"is_waiting":  userModel.IsWaiting,
			"last_active": userModel.LastActive,
		}
		if userModel.CurrentRoom == nil {
			updates["current_room"] = gorm.Expr("NULL")
		} else {
			updates["current_room"] = userModel.CurrentRoom
		}

		res := tx.Model(&model.User{}).Where("id = ?", userModel.ID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.Create(userModel).Error
		}
		return nil
	})
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) ClearRoom(ctx context.Context, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("current_room = ?", roomID).
		Updates(map[string]any{
			"current_room": gorm.Expr("NULL"),
			"is_waiting":   false,
		}).Error
}

func toModelRoom(record *domain.RoomRecord) *model.Room {
	participants := make([]model.Participant, 0, len(record.Participants))
	for _, p := range record.Participants {
		participants = append(participants, model.Participant{
			RoomID:   record.ID,
			ConnID:   p.ID,
			Username: p.Username,
		})
	}

	return &model.Room{
		ID:           record.ID,
		Mode:         string(record.Mode),
		Status:       string(record.Status),
		CreatedAt:    record.CreatedAt.UTC(),
		EndedAt:      record.EndedAt,
		Participants: participants,
	}
}

func toDomainRoom(room *model.Room) *domain.RoomRecord {
	participants := make([]domain.RoomMember, 0, len(room.Participants))
	for _, p := range room.Participants {
		participants = append(participants, domain.RoomMember{
			ID:       p.ConnID,
			Username: p.Username,
		})
	}

	return &domain.RoomRecord{
		ID:           room.ID,
		Mode:         domain.Mode(room.Mode),
		Status:       domain.RoomStatus(room.Status),
		Participants: participants,
		CreatedAt:    room.CreatedAt.UTC(),
		EndedAt:      room.EndedAt,
	}
}

func toModelUser(user *domain.User) *model.User {
	var currentRoom *string
	if user.CurrentRoom != "" {
		room := user.CurrentRoom
		currentRoom = &room
	}
	return &model.User{
		ID:          user.ID,
		Username:    user.Username,
		Mode:        string(user.Mode),
		IsWaiting:   user.IsWaiting,
		CurrentRoom: currentRoom,
		LastActive:  user.LastActive.UTC(),
	}
}

func toDomainUser(user *model.User) *domain.User {
	currentRoom := ""
	if user.CurrentRoom != nil {
		currentRoom = *user.CurrentRoom
	}

	return &domain.User{
		ID:          user.ID,
		Username:    user.Username,
		Mode:        domain.Mode(user.Mode),
		IsWaiting:   user.IsWaiting,
		CurrentRoom: currentRoom,
		LastActive:  user.LastActive.UTC(),
	}
}
