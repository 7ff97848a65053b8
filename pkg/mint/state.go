package mint

// State of the submitter. Succeeded and Failed are terminal; the next Mint or
// an explicit Reset returns to Idle.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateConfirming
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateConfirming:
		return "confirming"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// InProgress is true between submission and a terminal state
func (s State) InProgress() bool {
	return s == StateSubmitting || s == StateConfirming
}
