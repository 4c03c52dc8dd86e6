package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInbound_ValidFrame(t *testing.T) {
	req := require.New(t)

	frame, err := ParseInbound([]byte(`{"message":"hello","receiver_id":"u2"}`))
	req.NoError(err)
	req.Equal("hello", frame.Message)
	req.Equal("u2", frame.ReceiverID)
}

func TestParseInbound_MalformedPayloads(t *testing.T) {
	req := require.New(t)

	for _, raw := range []string{
		`not json at all`,
		`{"message":`,
		`{}`,
		`{"message":""}`,
		`{"receiver_id":"u2"}`,
		`[1,2,3]`,
	} {
		_, err := ParseInbound([]byte(raw))
		req.ErrorIs(err, ErrMalformedFrame, "payload %q", raw)
	}
}

func TestNewErrorFrame(t *testing.T) {
	req := require.New(t)

	frame, err := NewErrorFrame("Provide an auth token")
	req.NoError(err)
	req.JSONEq(`{"error":"Provide an auth token"}`, string(frame))
}
