package client

// ConnectionState represents the current state of the supervised connection.
type ConnectionState int

const (
	// StateDisconnected means no connection is open and no retry is pending.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a dial or reconnect attempt is in flight.
	StateConnecting

	// StateConnected means the connection is open and ready.
	StateConnected
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// LifecycleKind identifies a supervisor lifecycle notification.
type LifecycleKind int

const (
	// LifecycleConnected fires when a connection is established.
	LifecycleConnected LifecycleKind = iota
	// LifecycleDisconnected fires when the connection drops or is closed.
	LifecycleDisconnected
	// LifecycleReconnectFailed fires when the retry budget is exhausted.
	LifecycleReconnectFailed
)

// LifecycleEvent is delivered to lifecycle listeners.
type LifecycleEvent struct {
	Kind    LifecycleKind
	Attempt int   // last attempt number, for reconnect failures
	Err     error // cause, when there is one
}
