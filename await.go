package asyncgen

// Awaiter connects await targets to the host's notion of asynchrony.
// When a body suspends with [Awaited], the generator hands the target to
// its awaiter, which must arrange for settle to be called exactly once
// with the settled value or error. The generator stays in the executing
// state until then; calling settle twice panics.
//
// Await may call settle synchronously, in which case the body resumes
// before the awaiter returns.
type Awaiter interface {
	Await(op any, settle func(v any, err error))
}

// AwaiterFunc adapts a function to the Awaiter interface.
type AwaiterFunc func(op any, settle func(v any, err error))

func (f AwaiterFunc) Await(op any, settle func(v any, err error)) { f(op, settle) }

// awaitable is implemented by *Promise[T] for every T.
type awaitable interface {
	onSettledAny(func(any, error))
}

// DefaultAwaiter resolves promises created by this package and treats
// any other target as already settled with itself.
var DefaultAwaiter Awaiter = promiseAwaiter{}

type promiseAwaiter struct{}

func (promiseAwaiter) Await(op any, settle func(any, error)) {
	if a, ok := op.(awaitable); ok {
		a.onSettledAny(settle)
		return
	}
	settle(op, nil)
}
