package hub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JoseMiracle/MIMI/internal/config"
	"github.com/JoseMiracle/MIMI/internal/domain"
)

func drainFrame(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case frame := <-c.send:
		return frame
	default:
		t.Fatalf("client %s received no frame", c.ID)
		return nil
	}
}

func TestLocalDispatcher_DeliversToEveryMemberIncludingSender(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewLocalDispatcher(reg)

	sender := testClient("sender")
	peer := testClient("peer")
	reg.Subscribe("chat:1", sender)
	reg.Subscribe("chat:1", peer)

	ev := domain.DirectMessage{Message: "hello", Sender: "alice"}
	req.NoError(d.Dispatch(context.Background(), "chat:1", ev))

	for _, c := range []*Client{sender, peer} {
		var frame struct {
			Type        string `json:"type"`
			MessageInfo struct {
				Message string `json:"message"`
				Sender  string `json:"sender"`
			} `json:"message_info"`
		}
		req.NoError(json.Unmarshal(drainFrame(t, c), &frame))
		req.Equal("chat_message", frame.Type)
		req.Equal("hello", frame.MessageInfo.Message)
		req.Equal("alice", frame.MessageInfo.Sender)
	}
}

func TestLocalDispatcher_SkipsOtherGroups(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewLocalDispatcher(reg)

	member := testClient("member")
	outsider := testClient("outsider")
	reg.Subscribe("room:1", member)
	reg.Subscribe("room:2", outsider)

	ev := domain.RoomMessage{Message: "hi", Sender: "bob", RoomID: "1"}
	req.NoError(d.Dispatch(context.Background(), "room:1", ev))

	req.Len(member.send, 1)
	req.Len(outsider.send, 0)
}

func TestLocalDispatcher_UnreachableMemberDoesNotAbortDelivery(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewLocalDispatcher(reg)

	gone := NewClient("gone", nil, config.WebSocketConfig{SendBuffer: 1})
	gone.Close()
	healthy := testClient("healthy")
	reg.Subscribe("room:1", gone)
	reg.Subscribe("room:1", healthy)

	ev := domain.RoomMessage{Message: "still here", Sender: "bob", RoomID: "1"}
	req.NoError(d.Dispatch(context.Background(), "room:1", ev))

	req.Len(healthy.send, 1)
}

func TestLocalDispatcher_FullQueueMemberIsClosed(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	d := NewLocalDispatcher(reg)

	wedged := NewClient("wedged", nil, config.WebSocketConfig{SendBuffer: 1})
	wedged.Enqueue([]byte("backlog")) // fill the queue; no write pump drains it
	healthy := testClient("healthy")
	reg.Subscribe("room:1", wedged)
	reg.Subscribe("room:1", healthy)

	ev := domain.RoomMessage{Message: "hi", Sender: "bob", RoomID: "1"}
	req.NoError(d.Dispatch(context.Background(), "room:1", ev))

	req.Len(healthy.send, 1)

	select {
	case <-wedged.done:
	default:
		t.Fatal("member with a full queue was not closed")
	}
}

func TestLocalDispatcher_EmptyGroupIsANoop(t *testing.T) {
	req := require.New(t)
	d := NewLocalDispatcher(NewRegistry())

	ev := domain.ChannelMessage{Message: "void", Sender: "anon", Channel: "lobby"}
	req.NoError(d.Dispatch(context.Background(), "channel:lobby", ev))
}
