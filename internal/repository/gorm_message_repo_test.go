package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JoseMiracle/MIMI/internal/domain"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.UserModel{},
		&domain.RoomModel{},
		&domain.RoomMemberModel{},
		&domain.ConversationModel{},
		&domain.MessageModel{},
	))
	return db
}

func TestCreateDirect_ResolvesSameConversationBothWays(t *testing.T) {
	req := require.New(t)
	repo := NewGormMessageRepository(testDB(t))
	ctx := context.Background()

	first, err := repo.CreateDirect(ctx, "alice", "bob", "hi bob")
	req.NoError(err)
	req.NotEmpty(first.ConversationID)

	second, err := repo.CreateDirect(ctx, "bob", "alice", "hi alice")
	req.NoError(err)

	// Both directions land on the same conversation row.
	req.Equal(first.ConversationID, second.ConversationID)
}

func TestCreateDirect_DistinctPairsGetDistinctConversations(t *testing.T) {
	req := require.New(t)
	repo := NewGormMessageRepository(testDB(t))
	ctx := context.Background()

	m1, err := repo.CreateDirect(ctx, "alice", "bob", "x")
	req.NoError(err)
	m2, err := repo.CreateDirect(ctx, "alice", "carol", "y")
	req.NoError(err)

	req.NotEqual(m1.ConversationID, m2.ConversationID)
}

func TestEdit_BumpsEditCount(t *testing.T) {
	req := require.New(t)
	repo := NewGormMessageRepository(testDB(t))
	ctx := context.Background()

	msg, err := repo.CreateRoom(ctx, "r1", "alice", "first draft")
	req.NoError(err)
	req.Equal(0, msg.EditCount)

	edited, err := repo.Edit(ctx, msg.ID, "second draft")
	req.NoError(err)
	req.Equal("second draft", edited.Body)
	req.Equal(1, edited.EditCount)

	edited, err = repo.Edit(ctx, msg.ID, "third draft")
	req.NoError(err)
	req.Equal(2, edited.EditCount)
}

func TestEdit_MissingMessage(t *testing.T) {
	req := require.New(t)
	repo := NewGormMessageRepository(testDB(t))

	_, err := repo.Edit(context.Background(), "missing", "body")
	req.ErrorIs(err, ErrMessageNotFound)
}

func TestListRoomMessages_NewestFirstWithLimit(t *testing.T) {
	req := require.New(t)
	db := testDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()

	// Insert with explicit timestamps so ordering is deterministic.
	base := time.Now().Add(-time.Hour).UTC()
	for i := 0; i < 5; i++ {
		model := &domain.MessageModel{
			ID:        fmt.Sprintf("m%d", i),
			SenderID:  "alice",
			RoomID:    "r1",
			Body:      fmt.Sprintf("msg %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		req.NoError(db.Create(model).Error)
	}

	messages, err := repo.ListRoomMessages(ctx, "r1", 3, time.Time{})
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("msg 4", messages[0].Body)
	req.Equal("msg 2", messages[2].Body)
}

func TestListRoomMessages_BeforeCursor(t *testing.T) {
	req := require.New(t)
	db := testDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UTC()
	for i := 0; i < 5; i++ {
		model := &domain.MessageModel{
			ID:        fmt.Sprintf("m%d", i),
			SenderID:  "alice",
			RoomID:    "r1",
			Body:      fmt.Sprintf("msg %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		req.NoError(db.Create(model).Error)
	}

	messages, err := repo.ListRoomMessages(ctx, "r1", 50, base.Add(2*time.Minute))
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("msg 1", messages[0].Body)
	req.Equal("msg 0", messages[1].Body)
}

func TestListConversationMessages(t *testing.T) {
	req := require.New(t)
	repo := NewGormMessageRepository(testDB(t))
	ctx := context.Background()

	sent, err := repo.CreateDirect(ctx, "alice", "bob", "only one")
	req.NoError(err)

	messages, err := repo.ListConversationMessages(ctx, sent.ConversationID, 10, time.Time{})
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("only one", messages[0].Body)

	messages, err = repo.ListConversationMessages(ctx, "other-conversation", 10, time.Time{})
	req.NoError(err)
	req.Empty(messages)
}
