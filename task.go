package asyncgen

// Task is the handle a [Func] body uses to suspend itself. Yield and
// Await block the body goroutine until the generator delivers the next
// resumption; both surface throw resumptions as ordinary errors, and
// both unwind the goroutine when a return resumption arrives, running
// pending defers on the way out.
type Task[R, S any] struct {
	fr  *Frame[R, S]
	in  chan Resumption[R, S]
	out chan taskEvent[R]
}

type taskEvent[R any] struct {
	out      Outcome[R]
	panicked bool
	pval     any
}

// Func adapts an ordinary function into a generator body. The function
// runs on its own goroutine, created lazily when the first request
// arrives, and communicates suspension points over unbuffered channels
// so that at most one of the body and the generator runs at a time.
//
// The function's return value completes the generator normally; a
// non-nil error completes it abruptly. A panic in the function
// propagates to the goroutine driving the generator.
//
// The goroutine is released when the body completes. A generator that
// is abandoned while suspended keeps its goroutine parked; issue a
// Return to unwind it.
func Func[R, S any](fn func(t *Task[R, S]) (R, error)) Body[R, S] {
	return &funcBody[R, S]{fn: fn}
}

type funcBody[R, S any] struct {
	fn      func(*Task[R, S]) (R, error)
	t       *Task[R, S]
	started bool
	done    bool
}

func (b *funcBody[R, S]) Step(fr *Frame[R, S]) Outcome[R] {
	if b.done {
		panic("asyncgen: step after completion")
	}
	if !b.started {
		b.started = true
		b.t = &Task[R, S]{
			fr:  fr,
			in:  make(chan Resumption[R, S]),
			out: make(chan taskEvent[R]),
		}
		go b.run()
	}
	b.t.in <- fr.Resumption()
	ev := <-b.t.out
	if ev.panicked {
		b.done = true
		panic(ev.pval)
	}
	if ev.out.kind == outcomeFinished || ev.out.kind == outcomeRaised {
		b.done = true
	}
	return ev.out
}

func (b *funcBody[R, S]) run() {
	t := b.t

	// The first resumption only starts the body; its send value is
	// discarded like the argument of a generator's first next().
	<-t.in

	var ev taskEvent[R]
	func() {
		defer func() {
			switch v := recover().(type) {
			case nil:
			case forcedReturn:
				// The comma-ok form keeps a nil result (for interface R)
				// from failing the assertion.
				r, _ := v.value.(R)
				ev.out = Finished(r)
			default:
				ev.panicked = true
				ev.pval = v
			}
		}()
		r, err := b.fn(t)
		if err != nil {
			ev.out = Raised[R](err)
		} else {
			ev.out = Finished(r)
		}
	}()
	t.out <- ev
}

// Yield suspends the body, producing v to the request being served. It
// returns the value sent by the resuming Next, or the error of a Throw
// delivered at this yield point. A Return resumption does not come
// back: the goroutine unwinds instead.
func (t *Task[R, S]) Yield(v R) (S, error) {
	t.out <- taskEvent[R]{out: Yielded(v)}
	re := <-t.in
	switch re.Kind {
	case ResumeNext:
		return re.Send, nil
	case ResumeThrow:
		var zero S
		return zero, re.Err
	default:
		panic(forcedReturn{value: re.Result})
	}
}

// Await suspends the body until op settles, as resolved by the
// generator's awaiter. It returns the settled value, or the rejection
// error. The generator stays executing while parked here: the request
// being served does not settle, and later requests queue behind it.
func (t *Task[R, S]) Await(op any) (any, error) {
	t.out <- taskEvent[R]{out: Awaited[R](op)}
	re := <-t.in
	switch re.Kind {
	case ResumeThrow:
		return nil, re.Err
	case ResumeReturn:
		panic(forcedReturn{value: re.Result})
	default:
		v, _ := t.fr.TakeAwaited()
		return v, nil
	}
}
