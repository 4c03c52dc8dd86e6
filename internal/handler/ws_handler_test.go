package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JoseMiracle/MIMI/internal/auth"
	"github.com/JoseMiracle/MIMI/internal/config"
	"github.com/JoseMiracle/MIMI/internal/domain"
	"github.com/JoseMiracle/MIMI/internal/hub"
	"github.com/JoseMiracle/MIMI/internal/repository"
	"github.com/JoseMiracle/MIMI/internal/router"
	"github.com/JoseMiracle/MIMI/pkg/jwt"
)

type testEnv struct {
	server   *httptest.Server
	registry *hub.Registry
	tokens   *jwt.Manager
	db       *gorm.DB
	users    *repository.GormUserRepository
	rooms    *repository.GormRoomRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	users := repository.NewGormUserRepository(db)
	rooms := repository.NewGormRoomRepository(db)
	messages := repository.NewGormMessageRepository(db)

	tokens := jwt.NewManager("test-secret", time.Hour, "mimi")
	authenticator := auth.NewTokenAuthenticator(tokens, users)
	gate := auth.NewGate(rooms)

	registry := hub.NewRegistry()
	dispatcher := hub.NewLocalDispatcher(registry)
	messageRouter := router.New(messages, dispatcher)

	wsCfg := config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      5 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     16,
	}

	engine := gin.New()
	NewWSHandler(registry, dispatcher, messageRouter, authenticator, gate, wsCfg).RegisterRoutes(engine)
	NewHTTPHandler(messages, authenticator, gate).RegisterRoutes(engine)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return &testEnv{
		server:   server,
		registry: registry,
		tokens:   tokens,
		db:       db,
		users:    users,
		rooms:    rooms,
	}
}

func (e *testEnv) wsURL(path string) string {
	return strings.Replace(e.server.URL, "http", "ws", 1) + path
}

func (e *testEnv) createUser(t *testing.T, id, username string) string {
	t.Helper()
	err := e.users.Create(context.Background(), &domain.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		IsActive: true,
	})
	require.NoError(t, err)

	token, err := e.tokens.GenerateAccessToken(id, username)
	require.NoError(t, err)
	return token
}

func (e *testEnv) dial(t *testing.T, path, token string) *websocket.Conn {
	t.Helper()
	url := e.wsURL(path)
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func TestRoomConnect_WithoutToken(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	// The upgrade itself succeeds; the rejection is an in-band frame.
	conn := env.dial(t, "/ws/room-chat/r1", "")

	frame := readFrame(t, conn)
	req.JSONEq(`"Provide an auth token"`, string(frame["error"]))

	// Then the server closes.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	req.Error(err)

	req.Equal(0, env.registry.MemberCount(domain.RoomKey("r1")))
}

func TestRoomConnect_NotAMember(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	token := env.createUser(t, "u1", "alice")

	room := &domain.Room{ID: "r1", Name: "general", CreatorID: "someone"}
	req.NoError(env.rooms.Create(context.Background(), room))

	conn := env.dial(t, "/ws/room-chat/r1", token)
	frame := readFrame(t, conn)
	req.JSONEq(`"You are not a member of this room"`, string(frame["error"]))

	req.Equal(0, env.registry.MemberCount(domain.RoomKey("r1")))
}

func TestRoomConnect_MissingRoomLooksLikeNotAMember(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	token := env.createUser(t, "u1", "alice")

	conn := env.dial(t, "/ws/room-chat/ghost", token)
	frame := readFrame(t, conn)
	req.JSONEq(`"You are not a member of this room"`, string(frame["error"]))
}

func TestRoomConnect_UnknownUser(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	token, err := env.tokens.GenerateAccessToken("ghost", "ghost")
	req.NoError(err)

	conn := env.dial(t, "/ws/room-chat/r1", token)
	frame := readFrame(t, conn)
	req.JSONEq(`"User not Found"`, string(frame["error"]))
}

func TestDirectChat_BothPeersReceiveIncludingSender(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	tokenAlice := env.createUser(t, "u1", "alice")
	tokenBob := env.createUser(t, "u2", "bob")

	alice := env.dial(t, "/ws/chat/7", tokenAlice)
	bob := env.dial(t, "/ws/chat/7", tokenBob)

	require.Eventually(t, func() bool {
		return env.registry.MemberCount(domain.DirectKey("7")) == 2
	}, 2*time.Second, 10*time.Millisecond)

	err := alice.WriteMessage(websocket.TextMessage, []byte(`{"message":"hello bob","receiver_id":"u2"}`))
	req.NoError(err)

	for _, conn := range []*websocket.Conn{alice, bob} {
		frame := readFrame(t, conn)
		req.JSONEq(`"chat_message"`, string(frame["type"]))
		req.JSONEq(`{"message":"hello bob","sender":"alice"}`, string(frame["message_info"]))
	}

	// The message is durable before anyone saw it.
	var count int64
	req.NoError(env.db.Model(&domain.MessageModel{}).Where("body = ?", "hello bob").Count(&count).Error)
	req.EqualValues(1, count)
}

func TestRoomChat_MemberBroadcast(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	tokenAlice := env.createUser(t, "u1", "alice")
	tokenBob := env.createUser(t, "u2", "bob")

	ctx := context.Background()
	room := &domain.Room{ID: "r1", Name: "general", CreatorID: "u1"}
	req.NoError(env.rooms.Create(ctx, room))
	req.NoError(env.rooms.AddMember(ctx, "r1", "u1", true))
	req.NoError(env.rooms.AddMember(ctx, "r1", "u2", false))

	alice := env.dial(t, "/ws/room-chat/r1", tokenAlice)
	bob := env.dial(t, "/ws/room-chat/r1", tokenBob)

	require.Eventually(t, func() bool {
		return env.registry.MemberCount(domain.RoomKey("r1")) == 2
	}, 2*time.Second, 10*time.Millisecond)

	req.NoError(alice.WriteMessage(websocket.TextMessage, []byte(`{"message":"hi room"}`)))

	for _, conn := range []*websocket.Conn{alice, bob} {
		frame := readFrame(t, conn)
		req.JSONEq(`"room_message"`, string(frame["type"]))
		req.JSONEq(`{"message":"hi room","sender":"alice","room_id":"r1"}`, string(frame["message_info"]))
	}
}

func TestNamedChannel_NoAuthRequired(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	a := env.dial(t, "/ws/channel/lobby", "")
	b := env.dial(t, "/ws/channel/lobby", "")

	require.Eventually(t, func() bool {
		return env.registry.MemberCount(domain.ChannelKey("lobby")) == 2
	}, 2*time.Second, 10*time.Millisecond)

	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`{"message":"anyone here"}`)))

	frame := readFrame(t, b)
	req.JSONEq(`"channel_message"`, string(frame["type"]))
	req.JSONEq(`{"message":"anyone here","sender":"anonymous","channel":"lobby"}`, string(frame["message_info"]))
}

func TestDisconnect_CleansUpRegistry(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	token := env.createUser(t, "u1", "alice")

	conn := env.dial(t, "/ws/chat/7", token)

	require.Eventually(t, func() bool {
		return env.registry.MemberCount(domain.DirectKey("7")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	req.NoError(conn.Close())

	require.Eventually(t, func() bool {
		return env.registry.MemberCount(domain.DirectKey("7")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMalformedFrame_IsSilentlyDropped(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	token := env.createUser(t, "u1", "alice")

	conn := env.dial(t, "/ws/chat/7", token)

	require.Eventually(t, func() bool {
		return env.registry.MemberCount(domain.DirectKey("7")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte(`this is not json`)))

	// No reply of any kind, and the connection stays open: a valid frame
	// sent afterwards still round-trips.
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"still alive","receiver_id":"u2"}`)))

	frame := readFrame(t, conn)
	req.JSONEq(`"chat_message"`, string(frame["type"]))
}
