package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoin = "join"
	InboundTypeSend = "send_message"

	OutboundTypeHistory   = "message_history"
	OutboundTypeUsersList = "users_list"
	OutboundTypeMessage   = "new_message"
	OutboundTypeUserLeft  = "user_left"
	OutboundTypeError     = "error"
)

// JoinData carries the externally issued identity binding this connection.
type JoinData struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SendData is a chat message from the client.
type SendData struct {
	Content string `json:"content"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// UserData describes one user in a users_list payload.
type UserData struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Online      bool   `json:"online"`
}

// MessageData describes one chat message on the wire.
type MessageData struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
	TS         int64  `json:"ts"`
}

// UserLeftData signals a presence removal.
type UserLeftData struct {
	UserID string `json:"user_id"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
