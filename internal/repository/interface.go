package repository

import (
	"context"
	"time"

	"github.com/JoseMiracle/MIMI/internal/domain"
)

// UserStore resolves token subjects to users.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

// RoomStore exposes the room/membership read model the authorization
// gate depends on, plus the create helpers the room workflows use.
type RoomStore interface {
	RoomExists(ctx context.Context, roomID string) (bool, error)
	ResolveMembership(ctx context.Context, roomID, userID string) (*domain.RoomMembership, error)
	Create(ctx context.Context, room *domain.Room) error
	AddMember(ctx context.Context, roomID, userID string, isAdmin bool) error
}

// MessageStore durably persists chat messages. Creation must have
// returned success before any broadcast of the message is dispatched.
type MessageStore interface {
	CreateDirect(ctx context.Context, senderID, receiverID, body string) (*domain.Message, error)
	CreateRoom(ctx context.Context, roomID, senderID, body string) (*domain.Message, error)
	Edit(ctx context.Context, messageID, body string) (*domain.Message, error)
	ListRoomMessages(ctx context.Context, roomID string, limit int, before time.Time) ([]domain.Message, error)
	ListConversationMessages(ctx context.Context, chatID string, limit int, before time.Time) ([]domain.Message, error)
}
