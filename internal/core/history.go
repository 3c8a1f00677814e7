package core

// History is a bounded, append-only message log. When the capacity is
// exceeded the oldest entries are evicted first. Owned by the hub
// goroutine, same as Directory.
type History struct {
	capacity int
	messages []Message
}

// DefaultHistoryCapacity bounds the in-memory log.
const DefaultHistoryCapacity = 100

// NewHistory constructs a log holding at most capacity messages.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		capacity: capacity,
		messages: make([]Message, 0, capacity),
	}
}

// Append adds a message at the tail, evicting from the head if full.
// Duplicates are stored as distinct entries; the log never reorders.
func (h *History) Append(m Message) {
	h.messages = append(h.messages, m)
	if len(h.messages) > h.capacity {
		n := copy(h.messages, h.messages[len(h.messages)-h.capacity:])
		h.messages = h.messages[:n]
	}
}

// Recent returns the last min(k, len) messages in arrival order.
func (h *History) Recent(k int) []Message {
	if k > len(h.messages) {
		k = len(h.messages)
	}
	if k <= 0 {
		return nil
	}
	out := make([]Message, k)
	copy(out, h.messages[len(h.messages)-k:])
	return out
}

// Len reports how many messages are currently retained.
func (h *History) Len() int {
	return len(h.messages)
}
