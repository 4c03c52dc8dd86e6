package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/JoseMiracle/MIMI/internal/domain"
	"github.com/JoseMiracle/MIMI/internal/repository"
	"github.com/JoseMiracle/MIMI/pkg/log"
)

// Gate decides whether an authenticated user may join a target group.
// Read-only; membership mutation belongs to the room workflows.
type Gate struct {
	rooms repository.RoomStore
}

func NewGate(rooms repository.RoomStore) *Gate {
	return &Gate{rooms: rooms}
}

// AuthorizeRoom checks that the room exists and the user holds an active
// membership. Both a missing room and a missing membership surface to the
// client as not_a_member; the log distinguishes them.
func (g *Gate) AuthorizeRoom(ctx context.Context, ident domain.Identity, roomID string) error {
	l := log.Ctx(ctx)

	exists, err := g.rooms.RoomExists(ctx, roomID)
	if err != nil {
		return fmt.Errorf("room lookup: %w", err)
	}
	if !exists {
		l.Debug().Str(log.FieldRoomID, roomID).Str(log.FieldUserID, ident.UserID).
			Msg("join rejected: room not found")
		return errNotAMember
	}

	if _, err := g.rooms.ResolveMembership(ctx, roomID, ident.UserID); err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			l.Debug().Str(log.FieldRoomID, roomID).Str(log.FieldUserID, ident.UserID).
				Msg("join rejected: not a member")
			return errNotAMember
		}
		return fmt.Errorf("membership lookup: %w", err)
	}

	return nil
}

// Direct conversations intentionally need no membership check: any two
// authenticated users may exchange direct messages.
