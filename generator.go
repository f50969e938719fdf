package asyncgen

import (
	"log/slog"
	"sync"

	"github.com/gammazero/deque"
)

// IterResult is the value a resumption request settles with: one
// element of the generated sequence, plus whether the generator has
// completed. Once Done is true, Value holds the generator's return
// value, or the zero value for requests served after completion.
type IterResult[R any] struct {
	Value R
	Done  bool
}

// Body is a suspendable generator body. The generator calls Step each
// time control enters the body: the frame carries the resumption being
// delivered, and Step returns how the body stopped. A panic inside Step
// propagates to the goroutine driving the generator.
//
// Step must honor the resumption protocol: a throw resumption raises
// the carried error at the suspension point, and a return resumption
// unwinds the body, running its cleanup, normally ending in [Finished]
// with the carried result.
type Body[R, S any] interface {
	Step(fr *Frame[R, S]) Outcome[R]
}

// Option configures a generator.
type Option func(*config)

type config struct {
	awaiter Awaiter
	log     *slog.Logger
}

// WithAwaiter sets the awaiter used to resolve await targets. The
// default is [DefaultAwaiter].
func WithAwaiter(a Awaiter) Option { return func(c *config) { c.awaiter = a } }

// WithLogger sets the logger used for debug traces. The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.log = l } }

// Generator drives a suspendable body through suspension and
// resumption. Consumers request progress with Next, Return and Throw;
// each request settles with an [IterResult] once the body has yielded,
// returned or raised in response. Requests are served strictly in
// arrival order: while the body is executing, or parked on an await,
// new requests queue behind the one in flight.
//
// All methods are safe for concurrent use. The body itself is never
// invoked reentrantly: at most one Step is active at any instant.
type Generator[R, S any] struct {
	mu    sync.Mutex
	state State
	frame Frame[R, S]
	queue requestQueue[R, S]
	body  Body[R, S]
	cfg   config

	// draining is set while a goroutine owns the serve loop; awaiting
	// is the handshake of the await the body is currently parked on.
	draining bool
	awaiting *reentry[R, S]

	// effects are settlement callbacks, queued under mu and run in
	// order outside it by a single flusher.
	effects  deque.Deque[func()]
	flushing bool
}

// New creates a generator in the suspended-start state. The body does
// not run until the first request arrives.
func New[R, S any](body Body[R, S], opts ...Option) *Generator[R, S] {
	cfg := config{awaiter: DefaultAwaiter, log: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Generator[R, S]{body: body, cfg: cfg}
}

// Next requests the next value of the sequence, delivering v to the
// body's suspended yield expression. The returned promise settles with
// the next yielded value, or with the generator's return value once the
// body completes.
func (g *Generator[R, S]) Next(v S) *Promise[IterResult[R]] {
	return g.request(Resumption[R, S]{Kind: ResumeNext, Send: v})
}

// Return requests early termination with result v. The body still
// unwinds through its cleanup; a body may even intercept the return and
// keep yielding. A return issued before the body ever ran completes the
// generator immediately.
func (g *Generator[R, S]) Return(v R) *Promise[IterResult[R]] {
	return g.request(Resumption[R, S]{Kind: ResumeReturn, Result: v})
}

// Throw raises err at the body's suspension point. If the body does not
// handle it, the returned promise rejects with err and the generator
// completes. A throw issued before the body ever ran rejects
// immediately without running it.
func (g *Generator[R, S]) Throw(err error) *Promise[IterResult[R]] {
	return g.request(Resumption[R, S]{Kind: ResumeThrow, Err: err})
}

func (g *Generator[R, S]) request(re Resumption[R, S]) *Promise[IterResult[R]] {
	p := NewPromise[IterResult[R]]()
	g.Enqueue(re, p.Fulfill, p.Reject)
	return p
}

// Enqueue appends a resumption request with explicit settlement
// callbacks instead of a promise. Exactly one of onFulfill and onReject
// is invoked, exactly once, possibly before Enqueue returns. Either
// callback may be nil. Callbacks are allowed to re-enter the generator.
func (g *Generator[R, S]) Enqueue(re Resumption[R, S], onFulfill func(IterResult[R]), onReject func(error)) {
	g.enqueue(&request[R, S]{re: re, fulfill: onFulfill, reject: onReject})
	g.flush()
}

func (g *Generator[R, S]) enqueue(req *request[R, S]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queue.push(req)
	g.cfg.log.Debug("generator enqueue", "kind", req.re.Kind, "state", g.state, "pending", g.queue.len())
	if !g.draining && g.state != Executing {
		g.drainLocked()
	}
}

// State returns the generator's lifecycle state.
func (g *Generator[R, S]) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Done reports whether the generator has completed.
func (g *Generator[R, S]) Done() bool {
	return g.State() == Completed
}

// Pending returns the number of unsettled requests, including the one
// being served while the generator is executing.
func (g *Generator[R, S]) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queue.len()
}

// Frame returns the generator's suspension frame. The frame must not be
// accessed while the generator is executing.
func (g *Generator[R, S]) Frame() *Frame[R, S] {
	return &g.frame
}

// drainLocked serves queued requests in order until the queue is empty
// or the body parks on an await. It is an explicit work loop rather
// than a recursive resumption so long synchronous yield chains run in
// constant stack space. Settlements are appended to g.effects; callers
// flush them after releasing the lock.
//
// The head request stays at the front of the queue while the body runs
// for it and is popped when it settles, so Pending counts it until then.
func (g *Generator[R, S]) drainLocked() {
	if g.state == Executing {
		panic("asyncgen: drain while executing")
	}
	g.draining = true
	defer func() { g.draining = false }()

	for g.queue.len() > 0 {
		req := g.queue.front()
		switch {
		case g.state == Completed:
			// The body never runs again; every late request settles
			// as already done. A late throw is not re-rejected: the
			// error was surfaced exactly once.
			g.queue.pop()
			g.pushSettleLocked(req, IterResult[R]{Done: true}, nil)
		case g.state == SuspendedStart && req.re.Kind == ResumeReturn:
			g.queue.pop()
			g.transitionLocked(Completed)
			g.pushSettleLocked(req, IterResult[R]{Value: req.re.Result, Done: true}, nil)
		case g.state == SuspendedStart && req.re.Kind == ResumeThrow:
			g.queue.pop()
			g.transitionLocked(Completed)
			g.pushSettleLocked(req, IterResult[R]{}, req.re.Err)
		default:
			g.transitionLocked(Executing)
			out, parked := g.stepLocked(req.re)
			if parked {
				return
			}
			g.settleLocked(out)
		}
	}
}

// settleLocked applies a body outcome: it updates the state, pops the
// head request and queues its settlement.
func (g *Generator[R, S]) settleLocked(out Outcome[R]) {
	req := g.queue.pop()
	switch out.kind {
	case outcomeYielded:
		g.transitionLocked(SuspendedYield)
		g.pushSettleLocked(req, IterResult[R]{Value: out.value}, nil)
	case outcomeFinished:
		g.transitionLocked(Completed)
		g.pushSettleLocked(req, IterResult[R]{Value: out.value, Done: true}, nil)
	case outcomeRaised:
		g.transitionLocked(Completed)
		g.pushSettleLocked(req, IterResult[R]{}, out.err)
	default:
		panic("asyncgen: body returned invalid outcome")
	}
}

func (g *Generator[R, S]) transitionLocked(to State) {
	g.cfg.log.Debug("generator transition", "from", g.state, "to", to)
	g.state = to
}

func (g *Generator[R, S]) pushSettleLocked(req *request[R, S], res IterResult[R], err error) {
	g.effects.PushBack(func() {
		if err != nil {
			if req.reject != nil {
				req.reject(err)
			}
			return
		}
		if req.fulfill != nil {
			req.fulfill(res)
		}
	})
}

// flush runs queued settlement effects in order. A single goroutine
// flushes at a time, so settlements keep their FIFO order even when a
// callback re-enters the generator and queues more.
func (g *Generator[R, S]) flush() {
	g.mu.Lock()
	if g.flushing {
		g.mu.Unlock()
		return
	}
	g.flushing = true
	// A panicking callback releases the latch before the panic
	// propagates; effects queued behind it run on the next flush.
	defer func() {
		if v := recover(); v != nil {
			g.mu.Lock()
			g.flushing = false
			g.mu.Unlock()
			panic(v)
		}
	}()
	for g.effects.Len() > 0 {
		fn := g.effects.PopFront()
		g.mu.Unlock()
		fn()
		g.mu.Lock()
	}
	g.flushing = false
	g.mu.Unlock()
}
