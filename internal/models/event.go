package models

// Named websocket events.
const (
	EventJoinConversation  = "joinConversation"
	EventLeaveConversation = "leaveConversation"
	EventSendMessage       = "sendMessage"

	EventReceiveMessage  = "receiveMessage"
	EventNewNotification = "newNotification"
	EventError           = "errorMessage"
)

// ClientEvent is an inbound websocket frame.
type ClientEvent struct {
	Type           string   `json:"type"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Message        *Message `json:"message,omitempty"`
}

// ServerEvent is broadcast through websockets.
type ServerEvent struct {
	Type         string        `json:"type"`
	Message      *Message      `json:"message,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Error        string        `json:"error,omitempty"`
}
