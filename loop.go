package asyncgen

import (
	"sync"

	"github.com/gammazero/deque"
)

// Loop is a FIFO callback queue drained by a single consumer. It gives
// hosts that want run-to-completion scheduling a place to funnel await
// settlements: wrap the generator's awaiter with [Loop.Awaiter] and
// generators only ever advance inside [Loop.Drain].
//
// The zero value is an empty loop ready to use. Post is safe to call
// from any goroutine.
type Loop struct {
	mu sync.Mutex
	q  deque.Deque[func()]
}

// Post enqueues fn to run on a later Drain.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.q.PushBack(fn)
	l.mu.Unlock()
}

// Len returns the number of queued callbacks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.q.Len()
}

// Drain runs queued callbacks in order until the queue is empty,
// including callbacks posted while draining. It returns the number of
// callbacks that ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		if l.q.Len() == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.q.PopFront()
		l.mu.Unlock()
		fn()
		n++
	}
}

// Awaiter wraps inner so that settlements are deferred onto the loop
// instead of re-entering the generator from whatever goroutine settled
// the target. A nil inner uses [DefaultAwaiter].
func (l *Loop) Awaiter(inner Awaiter) Awaiter {
	if inner == nil {
		inner = DefaultAwaiter
	}
	return loopAwaiter{loop: l, inner: inner}
}

type loopAwaiter struct {
	loop  *Loop
	inner Awaiter
}

func (a loopAwaiter) Await(op any, settle func(any, error)) {
	a.inner.Await(op, func(v any, err error) {
		a.loop.Post(func() { settle(v, err) })
	})
}
