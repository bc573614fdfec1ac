package mqtt

// ConnectionState tracks the broker connection lifecycle.
//
// Transitions:
//
//	Disconnected → Connecting   on Connect()
//	Connecting   → Connected    on broker acknowledgement
//	Connecting   → Disconnected on connect failure
//	Connected    → Closing      on Close()
//	Closing      → Disconnected after the final disconnect (terminal)
//
// An unexpected drop while Connected is reported through the
// unexpected-disconnect callback and is always fatal to the process;
// the client never transitions back to Connecting on its own.
type ConnectionState int32

const (
	// StateDisconnected is the initial and terminal state.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a connect call is in flight.
	StateConnecting

	// StateConnected means the broker acknowledged the connection.
	StateConnected

	// StateClosing means a shutdown is draining the connection.
	StateClosing
)

// String returns the state name for logging.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}
