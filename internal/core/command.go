package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin binds the connection to a user identity.
	CommandJoin CommandKind = iota
	// CommandSendMessage posts a chat message to the room.
	CommandSendMessage
)

// Command represents an action requested by a client connection.
type Command struct {
	Kind    CommandKind
	User    User   // for CommandJoin
	Content string // for CommandSendMessage
}
