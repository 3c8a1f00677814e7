package client

import "time"

// User mirrors one entry of the server's presence snapshot.
type User struct {
	ID          string
	DisplayName string
	Online      bool
}

// Message mirrors one server-accepted chat message.
type Message struct {
	ID         string
	SenderID   string
	SenderName string
	Content    string
	CreatedAt  time.Time
}

// Snapshot is the store's immutable view of chat state. UI code reads
// snapshots and never mutates them.
type Snapshot struct {
	CurrentUser *User
	Users       []User
	Messages    []Message
	Connected   bool
}
