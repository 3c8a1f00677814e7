package core

// connState tracks where a connection is in its lifecycle.
type connState int

const (
	connOpen connState = iota // accepted, no join yet
	connBound
	connClosed
)

// Client is one transport connection as seen by the core layer.
// Commands flow from the transport into the hub; Events flow back out.
type Client struct {
	ConnID   string
	Commands chan *Command
	Events   chan *Event

	state  connState
	userID string
}

// NewClient constructs a client with initialized channels.
func NewClient(connID string) *Client {
	return &Client{
		ConnID:   connID,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 16),
		state:    connOpen,
	}
}
