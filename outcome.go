package asyncgen

import "fmt"

type outcomeKind int

const (
	outcomeInvalid outcomeKind = iota
	outcomeFinished
	outcomeYielded
	outcomeRaised
	outcomeAwaited
)

// Outcome is what a body step produces: the body either finished with a
// result, yielded a value, raised an error, or suspended on an await
// target. Outcomes are built with [Finished], [Yielded], [Raised] and
// [Awaited]; the zero Outcome is invalid and makes the generator panic.
type Outcome[R any] struct {
	kind  outcomeKind
	value R
	err   error
	op    any
}

// Finished reports that the body completed normally with value v.
func Finished[R any](v R) Outcome[R] {
	return Outcome[R]{kind: outcomeFinished, value: v}
}

// Yielded reports that the body suspended at a yield point producing v.
func Yielded[R any](v R) Outcome[R] {
	return Outcome[R]{kind: outcomeYielded, value: v}
}

// Raised reports that the body completed abruptly with err.
func Raised[R any](err error) Outcome[R] {
	return Outcome[R]{kind: outcomeRaised, err: err}
}

// Awaited reports that the body suspended waiting for op to settle. The
// generator stays in the executing state and hands op to its [Awaiter];
// the settled value (or error) re-enters the body without serving the
// next queued request in between.
func Awaited[R any](op any) Outcome[R] {
	return Outcome[R]{kind: outcomeAwaited, op: op}
}

func (o Outcome[R]) String() string {
	switch o.kind {
	case outcomeFinished:
		return fmt.Sprintf("finished(%v)", o.value)
	case outcomeYielded:
		return fmt.Sprintf("yielded(%v)", o.value)
	case outcomeRaised:
		return fmt.Sprintf("raised(%v)", o.err)
	case outcomeAwaited:
		return fmt.Sprintf("awaited(%v)", o.op)
	default:
		return "invalid"
	}
}
