package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoseMiracle/MIMI/internal/domain"
	"github.com/JoseMiracle/MIMI/pkg/log"
)

// GormRoomRepository implements RoomStore using GORM.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GORM-based room repository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// RoomExists reports whether a room with the given id exists.
func (r *GormRoomRepository) RoomExists(ctx context.Context, roomID string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.RoomModel{}).
		Where("id = ?", roomID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// ResolveMembership returns the membership record linking a user to a room.
func (r *GormRoomRepository) ResolveMembership(ctx context.Context, roomID, userID string) (*domain.RoomMembership, error) {
	var model domain.RoomMemberModel
	result := r.db.WithContext(ctx).
		First(&model, "room_id = ? AND user_id = ?", roomID, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// Create creates a new room.
func (r *GormRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	l := log.Ctx(ctx)

	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	if room.Capacity == 0 {
		room.Capacity = 100
	}

	model := domain.RoomToModel(room)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create room in db")
		return err
	}

	room.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldRoomID, room.ID).Msg("room created in db")
	return nil
}

// AddMember adds a user to a room.
func (r *GormRoomRepository) AddMember(ctx context.Context, roomID, userID string, isAdmin bool) error {
	model := &domain.RoomMemberModel{
		ID:      uuid.New().String(),
		RoomID:  roomID,
		UserID:  userID,
		IsAdmin: isAdmin,
	}
	return r.db.WithContext(ctx).Create(model).Error
}
