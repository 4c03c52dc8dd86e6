package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Service
	FieldService = "service"

	// Messaging
	FieldClientID  = "client_id"
	FieldGroupKey  = "group_key"
	FieldRoomID    = "room_id"
	FieldChatID    = "chat_id"
	FieldMessageID = "message_id"
)
