package outcome

// State is the lifecycle of one payment request. Resolved is terminal.
type State int

const (
	Idle State = iota
	AwaitingResult
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResult:
		return "awaiting_result"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// CanTransition reports whether from -> to is a legal lifecycle step.
// Idle may also resolve directly when a request fails before launch.
func CanTransition(from, to State) bool {
	switch from {
	case Idle:
		return to == AwaitingResult || to == Resolved
	case AwaitingResult:
		return to == Resolved
	default:
		return false
	}
}
