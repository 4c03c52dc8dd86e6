package domain

import (
	"encoding/json"
	"errors"
)

// ErrMalformedFrame marks inbound payloads that are not valid structured
// messages. They are dropped at the session boundary without a reply.
var ErrMalformedFrame = errors.New("malformed frame")

// InboundFrame is the structured payload clients send on a channel.
// ReceiverID is required on direct channels; RoomID is informational on
// room channels (the binding decides the target).
type InboundFrame struct {
	Message    string `json:"message"`
	ReceiverID string `json:"receiver_id,omitempty"`
	RoomID     string `json:"room_id,omitempty"`
}

// ParseInbound parses a raw websocket payload into an InboundFrame.
func ParseInbound(raw []byte) (*InboundFrame, error) {
	var f InboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, ErrMalformedFrame
	}
	if f.Message == "" {
		return nil, ErrMalformedFrame
	}
	return &f, nil
}

// ErrorFrame is the single error payload sent before closing a rejected
// connection.
type ErrorFrame struct {
	Error string `json:"error"`
}

func NewErrorFrame(message string) ([]byte, error) {
	return json.Marshal(ErrorFrame{Error: message})
}
