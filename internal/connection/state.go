package connection

// State is the connection state machine position. It is owned exclusively
// by the Manager and only changes on socket lifecycle events or explicit
// Connect/Disconnect calls.
type State int

const (
	// StateDisconnected is the initial state and the state after an
	// intentional or non-retryable close.
	StateDisconnected State = iota

	// StateConnecting means a dial is in flight.
	StateConnecting

	// StateConnected means the socket is open and sends may proceed.
	StateConnected

	// StateReconnecting means a retry timer is pending after a
	// retryable close.
	StateReconnecting

	// StateFailed means retries are exhausted; only an explicit
	// Connect leaves this state.
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
