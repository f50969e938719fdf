package asyncgen

import "sync"

// stepLocked runs the body with a resumption and classifies how it
// stopped. Awaits whose target settles during registration are resolved
// in place; otherwise the generator stays executing and reports
// parked=true, to be re-entered when the settlement arrives.
//
// The generator lock is released while the body runs and while the
// awaiter registers; the executing state keeps concurrent requests
// queued behind the one in flight.
func (g *Generator[R, S]) stepLocked(re Resumption[R, S]) (Outcome[R], bool) {
	for {
		g.frame.setResumption(re)
		out := g.bodyStep()
		switch out.kind {
		case outcomeAwaited:
		case outcomeInvalid:
			panic("asyncgen: body returned invalid outcome")
		default:
			return out, false
		}

		h := &reentry[R, S]{g: g}
		g.awaiting = h
		g.cfg.log.Debug("generator await", "op", out.op)
		g.awaitRegister(h, out.op)

		v, err, settled := h.arm()
		if !settled {
			return Outcome[R]{}, true
		}
		g.awaiting = nil
		re = g.frame.awaitResumption(v, err)
	}
}

// bodyStep runs one body step outside the lock.
func (g *Generator[R, S]) bodyStep() Outcome[R] {
	g.mu.Unlock()
	defer g.mu.Lock()
	return g.body.Step(&g.frame)
}

// awaitRegister hands an await target to the awaiter outside the lock.
func (g *Generator[R, S]) awaitRegister(h *reentry[R, S], op any) {
	g.mu.Unlock()
	defer g.mu.Lock()
	g.cfg.awaiter.Await(op, h.settle)
}

// reentry is the single-shot handshake between one await registration
// and its settlement. Whichever side finishes second drives the body:
// a settlement that arrives while the executor is still registering is
// consumed in place, any later one re-enters the generator on the
// settling goroutine.
type reentry[R, S any] struct {
	g        *Generator[R, S]
	mu       sync.Mutex
	settled  bool
	detached bool
	value    any
	err      error
}

// settle records the awaited outcome. The awaiter must call it exactly
// once; a second call panics.
func (h *reentry[R, S]) settle(v any, err error) {
	h.mu.Lock()
	if h.settled {
		h.mu.Unlock()
		panic("asyncgen: await settled twice")
	}
	h.settled = true
	h.value, h.err = v, err
	detached := h.detached
	h.mu.Unlock()

	if detached {
		h.g.resumeFromAwait(h)
	}
}

// arm is called by the executor after registration, with the generator
// lock held. If the settlement already arrived it is consumed inline;
// otherwise the handshake detaches and the settlement will drive the
// generator itself.
func (h *reentry[R, S]) arm() (any, error, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.settled {
		return h.value, h.err, true
	}
	h.detached = true
	return nil, nil, false
}

// resumeFromAwait re-enters the generator with a settled await: the
// in-flight request resumes, and once it settles the queue keeps
// draining.
func (g *Generator[R, S]) resumeFromAwait(h *reentry[R, S]) {
	h.mu.Lock()
	v, err := h.value, h.err
	h.mu.Unlock()

	g.reenter(h, v, err)
	g.flush()
}

func (g *Generator[R, S]) reenter(h *reentry[R, S], v any, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.awaiting != h || g.state != Executing || g.queue.len() == 0 {
		panic("asyncgen: stray await settlement")
	}
	g.awaiting = nil
	re := g.frame.awaitResumption(v, err)
	out, parked := g.stepLocked(re)
	if parked {
		return
	}
	g.settleLocked(out)
	g.drainLocked()
}
