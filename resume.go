package asyncgen

// ResumeKind discriminates the three ways a suspended generator can be
// resumed, mirroring the three consumer-facing methods.
type ResumeKind int

const (
	// ResumeNext delivers a value into the suspended yield expression
	// and lets the body continue.
	ResumeNext ResumeKind = iota
	// ResumeReturn asks the body to unwind early and complete with the
	// carried result. Cleanup (defers, instruction handlers) still runs.
	ResumeReturn
	// ResumeThrow raises the carried error at the suspension point.
	ResumeThrow
)

func (k ResumeKind) String() string {
	switch k {
	case ResumeNext:
		return "next"
	case ResumeReturn:
		return "return"
	case ResumeThrow:
		return "throw"
	default:
		return "invalid"
	}
}

// Resumption is the payload delivered to a suspended body when a request
// is dequeued. Exactly one of Send, Result or Err is meaningful,
// according to Kind.
//
// The type parameter R is the type of values the generator produces and
// returns, S the type of values sent back into yield points.
type Resumption[R, S any] struct {
	Kind ResumeKind

	// Send is the value a ResumeNext resumption delivers to the yield
	// expression. The resumption that starts the body also carries a
	// Send value; conventional generator bodies ignore it.
	Send S

	// Result is the early-return value of a ResumeReturn resumption.
	Result R

	// Err is the error raised by a ResumeThrow resumption.
	Err error
}
