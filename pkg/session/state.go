package session

// State is the lifecycle state of the current call.
type State int

const (
	// StateIdle means no call has been started.
	StateIdle State = iota
	// StateConnecting means resources are being acquired.
	StateConnecting
	// StateActive means audio is flowing both ways.
	StateActive
	// StateProcessing means the call is over and post-call work runs.
	StateProcessing
	// StateEnded means the call finished normally.
	StateEnded
	// StateError means the call failed.
	StateError
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateProcessing:
		return "processing"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Running reports whether a call holds resources.
func (s State) Running() bool {
	return s == StateConnecting || s == StateActive
}
