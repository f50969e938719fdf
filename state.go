package asyncgen

// State describes where a generator is in its lifecycle. A generator
// starts in SuspendedStart, alternates between Executing and
// SuspendedYield while it produces values, and ends in Completed.
// Completed is terminal.
type State int

const (
	// SuspendedStart is the initial state; the body has not run yet.
	SuspendedStart State = iota
	// Executing means the body is running. A generator that is parked
	// on an await is still Executing: the pending request stays open
	// and new requests queue behind it.
	Executing
	// SuspendedYield means the body is parked at a yield point.
	SuspendedYield
	// Completed means the body returned or raised; every subsequent
	// request settles with a done result.
	Completed
)

func (s State) String() string {
	switch s {
	case SuspendedStart:
		return "suspended-start"
	case Executing:
		return "executing"
	case SuspendedYield:
		return "suspended-yield"
	case Completed:
		return "completed"
	default:
		return "invalid"
	}
}

// Suspended reports whether the generator can accept a resumption
// immediately, without queueing behind a running body.
func (s State) Suspended() bool {
	return s == SuspendedStart || s == SuspendedYield
}
