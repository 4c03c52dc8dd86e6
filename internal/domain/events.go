package domain

import (
	"encoding/json"
	"fmt"
)

// EventKind tags the broadcast event variants.
type EventKind string

const (
	KindChatMessage    EventKind = "chat_message"
	KindRoomMessage    EventKind = "room_message"
	KindChannelMessage EventKind = "channel_message"
)

// Event is the closed set of payloads that can be fanned out to a group.
// Adding a variant requires updating DecodeEvent; unknown kinds coming off
// the bus are rejected rather than silently routed.
type Event interface {
	Kind() EventKind
	Frame() ([]byte, error)
	sealedEvent()
}

type outboundFrame struct {
	Type        string      `json:"type"`
	MessageInfo interface{} `json:"message_info"`
}

func marshalFrame(kind EventKind, info interface{}) ([]byte, error) {
	return json.Marshal(outboundFrame{Type: string(kind), MessageInfo: info})
}

// DirectMessage is a chat message between two users.
type DirectMessage struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

func (DirectMessage) Kind() EventKind { return KindChatMessage }
func (DirectMessage) sealedEvent()    {}

func (e DirectMessage) Frame() ([]byte, error) {
	return marshalFrame(KindChatMessage, e)
}

// RoomMessage is a chat message inside a room.
type RoomMessage struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
	RoomID  string `json:"room_id"`
}

func (RoomMessage) Kind() EventKind { return KindRoomMessage }
func (RoomMessage) sealedEvent()    {}

func (e RoomMessage) Frame() ([]byte, error) {
	return marshalFrame(KindRoomMessage, e)
}

// ChannelMessage is a message on a legacy named channel.
type ChannelMessage struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
	Channel string `json:"channel"`
}

func (ChannelMessage) Kind() EventKind { return KindChannelMessage }
func (ChannelMessage) sealedEvent()    {}

func (e ChannelMessage) Frame() ([]byte, error) {
	return marshalFrame(KindChannelMessage, e)
}

// EncodeEvent serialises an event for the bus envelope.
func EncodeEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeEvent reconstructs an event from its kind tag and payload. The
// switch is exhaustive over the known kinds.
func DecodeEvent(kind EventKind, payload []byte) (Event, error) {
	switch kind {
	case KindChatMessage:
		var e DirectMessage
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case KindRoomMessage:
		var e RoomMessage
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case KindChannelMessage:
		var e ChannelMessage
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
}
