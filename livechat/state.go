package livechat

// ConnectionState represents the current state of the WebSocket connection.
type ConnectionState int

const (
	// StateIdle means Connect has not been called yet.
	StateIdle ConnectionState = iota

	// StateConnecting means a dial is in progress.
	StateConnecting

	// StateOpen means the socket is open and frames can be sent.
	StateOpen

	// StateClosedPendingRetry means the socket closed and a reconnect is scheduled.
	StateClosedPendingRetry

	// StateClosed means the client has been explicitly closed by the user.
	StateClosed
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosedPendingRetry:
		return "closed-pending-retry"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateEvent represents a state change event.
type StateEvent struct {
	OldState ConnectionState
	NewState ConnectionState
	Error    error // Optional error that caused the state change
}
