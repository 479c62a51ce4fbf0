package breaker

// State represents the circuit breaker state
type State int

const (
	// StateClosed lets calls pass through normally.
	StateClosed State = iota
	// StateOpen rejects calls immediately without invoking the operation.
	StateOpen
	// StateHalfOpen lets calls through experimentally to probe recovery.
	StateHalfOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
