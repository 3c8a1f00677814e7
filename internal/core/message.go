package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is the domain model for a chat message. Immutable once built.
type Message struct {
	ID         string
	SenderID   string
	SenderName string
	Content    string
	CreatedAt  time.Time
}

// NewMessageID returns an identifier that sorts roughly by arrival time.
// The nanosecond clock alone can collide under concurrent sends, so a
// random suffix is appended.
func NewMessageID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8])
}
