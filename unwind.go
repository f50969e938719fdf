package asyncgen

// forcedReturn is panicked inside a task goroutine when a return
// resumption arrives at a yield or await point. It unwinds the body so
// that defers run, and is recovered at the body boundary, completing
// the generator with the carried result.
type forcedReturn struct{ value any }

// Unwinding reports whether a task body is unwinding for early return.
// It should be called inside a defer and given the value returned by
// recover(); deferred functions that recover indiscriminately must
// re-panic such values so the unwind reaches the body boundary.
func Unwinding(v any) bool {
	_, ok := v.(forcedReturn)
	return ok
}
