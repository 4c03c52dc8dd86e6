package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JoseMiracle/MIMI/internal/domain"
	"github.com/JoseMiracle/MIMI/pkg/log"
)

// GormMessageRepository implements MessageStore using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// CreateDirect durably stores a direct message, resolving the conversation
// row for the sender/receiver pair on the way. The conversation lookup is
// keyed by the order-independent pair key, so both participants land on the
// same row regardless of who writes first.
func (r *GormMessageRepository) CreateDirect(ctx context.Context, senderID, receiverID, body string) (*domain.Message, error) {
	l := log.Ctx(ctx)

	model := &domain.MessageModel{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := resolveConversation(tx, senderID, receiverID)
		if err != nil {
			return err
		}
		model.ConversationID = conv.ID
		return tx.Create(model).Error
	})
	if err != nil {
		l.Error().Err(err).Msg("failed to create direct message in db")
		return nil, err
	}

	return model.ToDomain(), nil
}

// CreateRoom durably stores a room message.
func (r *GormMessageRepository) CreateRoom(ctx context.Context, roomID, senderID, body string) (*domain.Message, error) {
	l := log.Ctx(ctx)

	model := &domain.MessageModel{
		ID:       uuid.New().String(),
		SenderID: senderID,
		RoomID:   roomID,
		Body:     body,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to create room message in db")
		return nil, err
	}

	return model.ToDomain(), nil
}

// Edit replaces a message body and bumps its edit counter.
func (r *GormMessageRepository) Edit(ctx context.Context, messageID, body string) (*domain.Message, error) {
	result := r.db.WithContext(ctx).Model(&domain.MessageModel{}).
		Where("id = ?", messageID).
		Updates(map[string]interface{}{
			"body":       body,
			"edit_count": gorm.Expr("edit_count + 1"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrMessageNotFound
	}

	var model domain.MessageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", messageID).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListRoomMessages returns the most recent messages of a room, newest first.
func (r *GormMessageRepository) ListRoomMessages(ctx context.Context, roomID string, limit int, before time.Time) ([]domain.Message, error) {
	return r.list(ctx, "room_id = ?", roomID, limit, before)
}

// ListConversationMessages returns the most recent messages of a direct
// conversation, newest first.
func (r *GormMessageRepository) ListConversationMessages(ctx context.Context, chatID string, limit int, before time.Time) ([]domain.Message, error) {
	return r.list(ctx, "conversation_id = ?", chatID, limit, before)
}

func (r *GormMessageRepository) list(ctx context.Context, cond, arg string, limit int, before time.Time) ([]domain.Message, error) {
	if limit < 1 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Model(&domain.MessageModel{}).Where(cond, arg)
	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var models []domain.MessageModel
	if err := query.Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	messages := make([]domain.Message, len(models))
	for i, model := range models {
		messages[i] = *model.ToDomain()
	}
	return messages, nil
}

// resolveConversation finds or creates the conversation row for a pair.
func resolveConversation(tx *gorm.DB, senderID, receiverID string) (*domain.ConversationModel, error) {
	pair := domain.PairKey(senderID, receiverID)

	var conv domain.ConversationModel
	err := tx.First(&conv, "pair_key = ?", pair).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	userA, userB := senderID, receiverID
	if userB < userA {
		userA, userB = userB, userA
	}
	conv = domain.ConversationModel{
		ID:      uuid.New().String(),
		UserA:   userA,
		UserB:   userB,
		PairKey: pair,
	}
	if err := tx.Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}
