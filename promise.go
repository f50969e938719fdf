package asyncgen

import (
	"context"
	"sync"
)

const (
	promisePending = iota
	promiseFulfilled
	promiseRejected
)

// Promise is a single-assignment container for a value that will be
// produced later. Every resumption request handed to a generator is
// answered through one.
//
// A promise settles exactly once, either with Fulfill or with Reject;
// settling twice panics. Settlement is observable three ways: blocking
// ([Promise.Await]), channel-based ([Promise.Done]), and callback-based
// ([Promise.OnSettled]).
type Promise[T any] struct {
	mu    sync.Mutex
	state int
	value T
	err   error
	done  chan struct{}
	subs  []func(T, error)
}

// NewPromise creates an unsettled promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Fulfill settles the promise with a value. It panics if the promise has
// already settled.
func (p *Promise[T]) Fulfill(v T) {
	p.settle(promiseFulfilled, v, nil)
}

// Reject settles the promise with an error. It panics if the promise has
// already settled.
func (p *Promise[T]) Reject(err error) {
	var zero T
	p.settle(promiseRejected, zero, err)
}

func (p *Promise[T]) settle(state int, v T, err error) {
	p.mu.Lock()
	if p.state != promisePending {
		p.mu.Unlock()
		panic("asyncgen: promise already settled")
	}
	p.state = state
	p.value = v
	p.err = err
	subs := p.subs
	p.subs = nil
	close(p.done)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(v, err)
	}
}

// Await blocks until the promise settles or the context is canceled. It
// returns the settled value, the rejection error, or the context error.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed when the promise settles.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Settled reports whether the promise has been fulfilled or rejected.
func (p *Promise[T]) Settled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != promisePending
}

// Result returns the settled value and error. It must be called only
// after the promise has settled, or the return values are undefined.
func (p *Promise[T]) Result() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

// OnSettled registers fn to be called with the settled value and error.
// If the promise has already settled, fn is called synchronously before
// OnSettled returns; otherwise fn runs on the goroutine that settles the
// promise. Callbacks run in registration order.
func (p *Promise[T]) OnSettled(fn func(T, error)) {
	p.mu.Lock()
	if p.state == promisePending {
		p.subs = append(p.subs, fn)
		p.mu.Unlock()
		return
	}
	v, err := p.value, p.err
	p.mu.Unlock()
	fn(v, err)
}

// onSettledAny adapts OnSettled to the untyped signature the default
// awaiter works with.
func (p *Promise[T]) onSettledAny(fn func(any, error)) {
	p.OnSettled(func(v T, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(v, err)
	})
}
