package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JoseMiracle/MIMI/internal/auth"
	"github.com/JoseMiracle/MIMI/internal/domain"
	"github.com/JoseMiracle/MIMI/internal/repository"
	"github.com/JoseMiracle/MIMI/pkg/log"
	"github.com/JoseMiracle/MIMI/pkg/response"
)

const defaultHistoryLimit = 50

// HTTPHandler serves the read-side history API next to the websocket
// endpoints.
type HTTPHandler struct {
	messages      repository.MessageStore
	authenticator *auth.TokenAuthenticator
	gate          *auth.Gate
}

func NewHTTPHandler(messages repository.MessageStore, authenticator *auth.TokenAuthenticator, gate *auth.Gate) *HTTPHandler {
	return &HTTPHandler{
		messages:      messages,
		authenticator: authenticator,
		gate:          gate,
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1", h.requireAuth)
	api.GET("/rooms/:room_id/messages", h.RoomMessages)
	api.GET("/conversations/:chat_id/messages", h.ConversationMessages)
}

func (h *HTTPHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// requireAuth authenticates the request with the same token path the
// websocket endpoints use and stashes the identity on the gin context.
func (h *HTTPHandler) requireAuth(c *gin.Context) {
	ident, err := h.authenticator.Authenticate(c.Request.Context(), c.Request)
	if err != nil {
		if authErr, ok := auth.AsError(err); ok {
			response.Unauthorized(c, authErr.Message)
		} else {
			l := log.Ctx(c.Request.Context())
			l.Error().Err(err).Msg("authentication failed")
			response.InternalError(c)
		}
		c.Abort()
		return
	}

	c.Set("identity", ident)
	c.Set(log.FieldUserID, ident.UserID)
	c.Next()
}

// RoomMessages returns a page of room history, newest first. Membership
// is enforced the same way the room websocket endpoint enforces it.
func (h *HTTPHandler) RoomMessages(c *gin.Context) {
	roomID := c.Param("room_id")
	ident := c.MustGet("identity").(domain.Identity)

	if err := h.gate.AuthorizeRoom(c.Request.Context(), ident, roomID); err != nil {
		if authErr, ok := auth.AsError(err); ok {
			response.Forbidden(c, authErr.Message)
			return
		}
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str(log.FieldRoomID, roomID).
			Msg("room authorization failed")
		response.InternalError(c)
		return
	}

	limit, before, ok := h.pageParams(c)
	if !ok {
		return
	}

	messages, err := h.messages.ListRoomMessages(c.Request.Context(), roomID, limit, before)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str(log.FieldRoomID, roomID).
			Msg("failed to list room messages")
		response.InternalError(c)
		return
	}

	response.Success(c, messages)
}

// ConversationMessages returns a page of direct-message history for one
// conversation, newest first.
func (h *HTTPHandler) ConversationMessages(c *gin.Context) {
	chatID := c.Param("chat_id")

	limit, before, ok := h.pageParams(c)
	if !ok {
		return
	}

	messages, err := h.messages.ListConversationMessages(c.Request.Context(), chatID, limit, before)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str(log.FieldChatID, chatID).
			Msg("failed to list conversation messages")
		response.InternalError(c)
		return
	}

	response.Success(c, messages)
}

func (h *HTTPHandler) pageParams(c *gin.Context) (int, time.Time, bool) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(c, "limit must be a positive integer")
			return 0, time.Time{}, false
		}
		limit = parsed
	}

	var before time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "before must be an RFC3339 timestamp")
			return 0, time.Time{}, false
		}
		before = parsed
	}

	return limit, before, true
}
