package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectMessage_FrameShape(t *testing.T) {
	req := require.New(t)

	frame, err := DirectMessage{Message: "hello", Sender: "alice"}.Frame()
	req.NoError(err)

	var decoded map[string]json.RawMessage
	req.NoError(json.Unmarshal(frame, &decoded))
	req.JSONEq(`"chat_message"`, string(decoded["type"]))
	req.JSONEq(`{"message":"hello","sender":"alice"}`, string(decoded["message_info"]))
}

func TestRoomMessage_FrameShape(t *testing.T) {
	req := require.New(t)

	frame, err := RoomMessage{Message: "hi", Sender: "bob", RoomID: "r1"}.Frame()
	req.NoError(err)

	var decoded map[string]json.RawMessage
	req.NoError(json.Unmarshal(frame, &decoded))
	req.JSONEq(`"room_message"`, string(decoded["type"]))
	req.JSONEq(`{"message":"hi","sender":"bob","room_id":"r1"}`, string(decoded["message_info"]))
}

func TestDecodeEvent_RoundTripsEveryKind(t *testing.T) {
	req := require.New(t)

	events := []Event{
		DirectMessage{Message: "a", Sender: "alice"},
		RoomMessage{Message: "b", Sender: "bob", RoomID: "r1"},
		ChannelMessage{Message: "c", Sender: "carol", Channel: "lobby"},
	}

	for _, ev := range events {
		payload, err := EncodeEvent(ev)
		req.NoError(err)

		decoded, err := DecodeEvent(ev.Kind(), payload)
		req.NoError(err)
		req.Equal(ev, decoded)
	}
}

func TestDecodeEvent_RejectsUnknownKind(t *testing.T) {
	req := require.New(t)

	_, err := DecodeEvent(EventKind("presence_update"), []byte(`{}`))
	req.Error(err)
	req.Contains(err.Error(), "unknown event kind")
}

func TestDecodeEvent_RejectsInvalidPayload(t *testing.T) {
	req := require.New(t)

	_, err := DecodeEvent(KindChatMessage, []byte(`not-json`))
	req.Error(err)
}
