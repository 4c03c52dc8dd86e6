package domain

import (
	"time"

	"gorm.io/gorm"
)

// User is the read model for account identities. Account management
// itself (registration, passwords, activation email) lives outside this
// service; the messaging core only resolves token subjects against it.
type User struct {
	ID        string
	Username  string
	Email     string
	IsActive  bool
	CreatedAt time.Time
}

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID        string         `gorm:"type:varchar(36);primaryKey"`
	Username  string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	Email     string         `gorm:"type:varchar(120);uniqueIndex;not null"`
	IsActive  bool           `gorm:"not null;default:true"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *User {
	return &User{
		ID:        m.ID,
		Username:  m.Username,
		Email:     m.Email,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
}

func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		IsActive: u.IsActive,
	}
}

// Room is a named group-chat channel.
type Room struct {
	ID          string
	Name        string
	CreatorID   string
	Description string
	IsPublic    bool
	Capacity    int
	CreatedAt   time.Time
}

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID          string         `gorm:"type:varchar(36);primaryKey"`
	Name        string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	CreatorID   string         `gorm:"type:varchar(36);index;not null"`
	Description string         `gorm:"type:text"`
	IsPublic    bool           `gorm:"not null;default:true"`
	Capacity    int            `gorm:"not null;default:100"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (RoomModel) TableName() string { return "rooms" }

func (m *RoomModel) ToDomain() *Room {
	return &Room{
		ID:          m.ID,
		Name:        m.Name,
		CreatorID:   m.CreatorID,
		Description: m.Description,
		IsPublic:    m.IsPublic,
		Capacity:    m.Capacity,
		CreatedAt:   m.CreatedAt,
	}
}

func RoomToModel(r *Room) *RoomModel {
	return &RoomModel{
		ID:          r.ID,
		Name:        r.Name,
		CreatorID:   r.CreatorID,
		Description: r.Description,
		IsPublic:    r.IsPublic,
		Capacity:    r.Capacity,
	}
}

// RoomMembership records that a user belongs to a room. Mutation happens
// in the request/response room workflows; the messaging core only reads it.
type RoomMembership struct {
	ID      string
	RoomID  string
	UserID  string
	IsAdmin bool
}

// RoomMemberModel is the GORM model for the room_members table.
type RoomMemberModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	RoomID    string    `gorm:"type:varchar(36);index:idx_room_member,unique;not null"`
	UserID    string    `gorm:"type:varchar(36);index:idx_room_member,unique;not null"`
	IsAdmin   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (RoomMemberModel) TableName() string { return "room_members" }

func (m *RoomMemberModel) ToDomain() *RoomMembership {
	return &RoomMembership{
		ID:      m.ID,
		RoomID:  m.RoomID,
		UserID:  m.UserID,
		IsAdmin: m.IsAdmin,
	}
}

// Conversation is the durable identity of a direct chat between two users.
// PairKey is derived deterministically from the two participant ids so both
// sides resolve the same row independently of who writes first.
type Conversation struct {
	ID        string
	UserA     string
	UserB     string
	PairKey   string
	CreatedAt time.Time
}

// ConversationModel is the GORM model for the conversations table.
type ConversationModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserA     string    `gorm:"type:varchar(36);not null"`
	UserB     string    `gorm:"type:varchar(36);not null"`
	PairKey   string    `gorm:"type:varchar(80);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ConversationModel) TableName() string { return "conversations" }

func (m *ConversationModel) ToDomain() *Conversation {
	return &Conversation{
		ID:        m.ID,
		UserA:     m.UserA,
		UserB:     m.UserB,
		PairKey:   m.PairKey,
		CreatedAt: m.CreatedAt,
	}
}

// Message is a durable chat message, either direct (receiver + conversation
// set) or room-scoped (room set). Body and edit count change only through
// the explicit edit operation.
type Message struct {
	ID             string
	SenderID       string
	ReceiverID     string
	RoomID         string
	ConversationID string
	Body           string
	EditCount      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID             string    `gorm:"type:varchar(36);primaryKey"`
	SenderID       string    `gorm:"type:varchar(36);index;not null"`
	ReceiverID     string    `gorm:"type:varchar(36);index"`
	RoomID         string    `gorm:"type:varchar(36);index"`
	ConversationID string    `gorm:"type:varchar(36);index"`
	Body           string    `gorm:"type:text;not null"`
	EditCount      int       `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (MessageModel) TableName() string { return "messages" }

func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:             m.ID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		RoomID:         m.RoomID,
		ConversationID: m.ConversationID,
		Body:           m.Body,
		EditCount:      m.EditCount,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
