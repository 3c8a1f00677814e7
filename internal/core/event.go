package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventHistory delivers recent message history to a newly joined client.
	EventHistory EventKind = iota
	// EventUsersList delivers the full presence snapshot.
	EventUsersList
	// EventNewMessage notifies clients about a new chat message.
	EventNewMessage
	// EventUserLeft notifies clients that a user went offline.
	EventUserLeft
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Message  Message   // for EventNewMessage
	Messages []Message // for EventHistory
	Users    []User    // for EventUsersList
	UserID   string    // for EventUserLeft
}
