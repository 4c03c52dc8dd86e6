package router

import (
	"context"

	"github.com/JoseMiracle/MIMI/internal/domain"
	"github.com/JoseMiracle/MIMI/internal/hub"
	"github.com/JoseMiracle/MIMI/internal/repository"
	"github.com/JoseMiracle/MIMI/pkg/log"
)

const anonymousSender = "anonymous"

// Router consumes inbound frames from open sessions, persists the durable
// message record, and only then hands the resulting event to the
// dispatcher. Persistence failure means no broadcast: peers never see a
// message that is absent from history.
type Router struct {
	store      repository.MessageStore
	dispatcher hub.Dispatcher
}

func New(store repository.MessageStore, dispatcher hub.Dispatcher) *Router {
	return &Router{store: store, dispatcher: dispatcher}
}

// HandleInbound processes one raw payload from a client. Malformed
// payloads are dropped without a reply; the client only ever hears about
// auth failures.
func (r *Router) HandleInbound(ctx context.Context, c *hub.Client, raw []byte) {
	l := log.Ctx(ctx)

	frame, err := domain.ParseInbound(raw)
	if err != nil {
		l.Debug().Str(log.FieldClientID, c.ID).Msg("dropping malformed inbound frame")
		return
	}

	binding := c.Session.Binding()

	switch binding.Kind {
	case domain.ChannelDirect:
		r.handleDirect(ctx, c, binding, frame)
	case domain.ChannelRoom:
		r.handleRoom(ctx, c, binding, frame)
	case domain.ChannelNamed:
		r.handleNamed(ctx, c, binding, frame)
	}
}

func (r *Router) handleDirect(ctx context.Context, c *hub.Client, b domain.Binding, frame *domain.InboundFrame) {
	l := log.Ctx(ctx)

	ident, ok := c.Session.Identity()
	if !ok {
		// Unauthenticated sessions never reach an authenticated channel.
		l.Error().Str(log.FieldClientID, c.ID).Msg("inbound frame from unauthenticated session")
		return
	}
	if frame.ReceiverID == "" {
		l.Debug().Str(log.FieldClientID, c.ID).Msg("dropping direct frame without receiver_id")
		return
	}

	msg, err := r.store.CreateDirect(ctx, ident.UserID, frame.ReceiverID, frame.Message)
	if err != nil {
		l.Error().Err(err).
			Str(log.FieldUserID, ident.UserID).
			Str(log.FieldChatID, b.ChatID).
			Msg("message persistence failed, broadcast suppressed")
		return
	}

	ev := domain.DirectMessage{Message: msg.Body, Sender: ident.Display()}
	if err := r.dispatcher.Dispatch(ctx, b.Key, ev); err != nil {
		l.Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("dispatch failed")
	}
}

func (r *Router) handleRoom(ctx context.Context, c *hub.Client, b domain.Binding, frame *domain.InboundFrame) {
	l := log.Ctx(ctx)

	ident, ok := c.Session.Identity()
	if !ok {
		l.Error().Str(log.FieldClientID, c.ID).Msg("inbound frame from unauthenticated session")
		return
	}

	msg, err := r.store.CreateRoom(ctx, b.RoomID, ident.UserID, frame.Message)
	if err != nil {
		l.Error().Err(err).
			Str(log.FieldUserID, ident.UserID).
			Str(log.FieldRoomID, b.RoomID).
			Msg("message persistence failed, broadcast suppressed")
		return
	}

	ev := domain.RoomMessage{Message: msg.Body, Sender: ident.Display(), RoomID: b.RoomID}
	if err := r.dispatcher.Dispatch(ctx, b.Key, ev); err != nil {
		l.Error().Err(err).Str(log.FieldMessageID, msg.ID).Msg("dispatch failed")
	}
}

// handleNamed serves the legacy named channels: no authentication, no
// durable record, broadcast only.
func (r *Router) handleNamed(ctx context.Context, c *hub.Client, b domain.Binding, frame *domain.InboundFrame) {
	sender := anonymousSender
	if ident, ok := c.Session.Identity(); ok {
		sender = ident.Display()
	}

	ev := domain.ChannelMessage{Message: frame.Message, Sender: sender, Channel: b.Name}
	if err := r.dispatcher.Dispatch(ctx, b.Key, ev); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldGroupKey, b.Key).Msg("dispatch failed")
	}
}
