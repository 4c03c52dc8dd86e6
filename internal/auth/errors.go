package auth

import "errors"

// Reason classifies client-visible authentication and authorization
// failures. Unexpected collaborator failures are never folded into these;
// they surface as ordinary wrapped errors so logs can tell them apart.
type Reason string

const (
	ReasonNoToken      Reason = "no_token"
	ReasonInvalidToken Reason = "invalid_token"
	ReasonUserNotFound Reason = "user_not_found"
	ReasonNotAMember   Reason = "not_a_member"
)

// Error is a rejection the client is told about: one error frame, then
// the connection is closed.
type Error struct {
	Reason  Reason
	Message string // client-visible text
}

func (e *Error) Error() string {
	return string(e.Reason) + ": " + e.Message
}

var (
	errNoToken      = &Error{Reason: ReasonNoToken, Message: "Provide an auth token"}
	errInvalidToken = &Error{Reason: ReasonInvalidToken, Message: "Invalid auth token"}
	errUserNotFound = &Error{Reason: ReasonUserNotFound, Message: "User not Found"}
	errNotAMember   = &Error{Reason: ReasonNotAMember, Message: "You are not a member of this room"}
)

// AsError unwraps a client-visible auth error, if err is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
