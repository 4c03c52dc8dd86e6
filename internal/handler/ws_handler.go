package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/JoseMiracle/MIMI/internal/auth"
	"github.com/JoseMiracle/MIMI/internal/config"
	"github.com/JoseMiracle/MIMI/internal/domain"
	"github.com/JoseMiracle/MIMI/internal/hub"
	"github.com/JoseMiracle/MIMI/internal/router"
	"github.com/JoseMiracle/MIMI/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler owns the three connection endpoints and the session
// lifecycle around them. The transport upgrade always succeeds first;
// rejected connections get one error frame and the close handshake.
type WSHandler struct {
	registry      *hub.Registry
	dispatcher    hub.Dispatcher
	router        *router.Router
	authenticator *auth.TokenAuthenticator
	gate          *auth.Gate
	wsCfg         config.WebSocketConfig
}

func NewWSHandler(
	reg *hub.Registry,
	dispatcher hub.Dispatcher,
	rt *router.Router,
	authenticator *auth.TokenAuthenticator,
	gate *auth.Gate,
	wsCfg config.WebSocketConfig,
) *WSHandler {
	return &WSHandler{
		registry:      reg,
		dispatcher:    dispatcher,
		router:        rt,
		authenticator: authenticator,
		gate:          gate,
		wsCfg:         wsCfg,
	}
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/chat/:chat_id", h.HandleDirect)
	r.GET("/ws/room-chat/:room_id", h.HandleRoom)
	r.GET("/ws/channel/:name", h.HandleChannel)
}

// HandleDirect serves the direct-message channel for one conversation id.
// Authentication required; no membership check — any two authenticated
// users may exchange direct messages.
func (h *WSHandler) HandleDirect(c *gin.Context) {
	chatID := c.Param("chat_id")

	client, ctx, ok := h.upgrade(c)
	if !ok {
		return
	}

	ident, err := h.authenticator.Authenticate(ctx, c.Request)
	if err != nil {
		h.reject(ctx, client, err)
		return
	}

	client.Session.Authenticate(ident)
	h.attach(ctx, client, domain.Binding{
		Kind:   domain.ChannelDirect,
		Key:    domain.DirectKey(chatID),
		ChatID: chatID,
	})
}

// HandleRoom serves a room channel. Authentication and room membership
// required.
func (h *WSHandler) HandleRoom(c *gin.Context) {
	roomID := c.Param("room_id")

	client, ctx, ok := h.upgrade(c)
	if !ok {
		return
	}

	ident, err := h.authenticator.Authenticate(ctx, c.Request)
	if err != nil {
		h.reject(ctx, client, err)
		return
	}

	if err := h.gate.AuthorizeRoom(ctx, ident, roomID); err != nil {
		h.reject(ctx, client, err)
		return
	}

	client.Session.Authenticate(ident)
	h.attach(ctx, client, domain.Binding{
		Kind:   domain.ChannelRoom,
		Key:    domain.RoomKey(roomID),
		RoomID: roomID,
	})
}

// HandleChannel serves the legacy named channels: open broadcast groups
// with no authentication and no durable history.
func (h *WSHandler) HandleChannel(c *gin.Context) {
	name := c.Param("name")

	client, ctx, ok := h.upgrade(c)
	if !ok {
		return
	}

	if ident, err := h.authenticator.Authenticate(ctx, c.Request); err == nil {
		client.Session.Authenticate(ident)
	}

	h.attach(ctx, client, domain.Binding{
		Kind: domain.ChannelNamed,
		Key:  domain.ChannelKey(name),
		Name: name,
	})
}

// upgrade accepts the transport connection. The request context dies with
// the HTTP handler, so the session carries a detached context that keeps
// the request-scoped logger.
func (h *WSHandler) upgrade(c *gin.Context) (*hub.Client, context.Context, bool) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return nil, nil, false
	}

	client := hub.NewClient(uuid.New().String(), conn, h.wsCfg)
	ctx := log.WithLogger(context.Background(), log.Ctx(c.Request.Context()))
	return client, ctx, true
}

// reject sends the single structured error frame and closes. Client-visible
// reasons come from the auth taxonomy; anything else is an internal
// failure that is logged in full but reported generically.
func (h *WSHandler) reject(ctx context.Context, client *hub.Client, err error) {
	l := log.Ctx(ctx)

	message := "Internal server error"
	if authErr, ok := auth.AsError(err); ok {
		message = authErr.Message
		l.Info().Str(log.FieldClientID, client.ID).Str("reason", string(authErr.Reason)).
			Msg("connection rejected")
	} else {
		l.Error().Err(err).Str(log.FieldClientID, client.ID).
			Msg("connection rejected by internal failure")
	}

	// The session passes through Open: the transport accept already
	// happened, the rejection is an application-level frame.
	client.Session.Open()
	client.Session.BeginClose()

	frame, ferr := domain.NewErrorFrame(message)
	if ferr == nil {
		client.Reject(frame)
	} else {
		client.Close()
	}
	client.Session.Close()
}

// attach registers the accepted session under its group key and starts
// the pumps. The context logger picks up the group key here, so the whole
// message path of this connection logs its channel.
func (h *WSHandler) attach(ctx context.Context, client *hub.Client, binding domain.Binding) {
	ctx = log.WithGroup(ctx, binding.Key)
	l := log.Ctx(ctx)

	client.Session.Bind(binding)
	client.Session.Open()

	if first := h.registry.Subscribe(binding.Key, client); first {
		if err := h.dispatcher.GroupOpened(ctx, binding.Key); err != nil {
			l.Error().Err(err).Msg("failed to open group on the bus")
		}
	}

	l.Info().Str(log.FieldClientID, client.ID).Msg("session open")

	go client.WritePump()
	go client.ReadPump(
		func(raw []byte) { h.router.HandleInbound(ctx, client, raw) },
		func() { h.disconnect(ctx, client) },
	)
}

// disconnect runs the Closing transition: the session leaves every group
// it joined so broadcasts never target a dead connection.
func (h *WSHandler) disconnect(ctx context.Context, client *hub.Client) {
	if !client.Session.BeginClose() {
		return
	}

	l := log.Ctx(ctx)

	for _, key := range client.Session.Groups() {
		if empty := h.registry.Unsubscribe(key, client); empty {
			if err := h.dispatcher.GroupClosed(ctx, key); err != nil {
				l.Warn().Err(err).Msg("failed to close group on the bus")
			}
		}
	}

	client.Close()
	client.Session.Close()

	l.Info().Str(log.FieldClientID, client.ID).Msg("session closed")
}
