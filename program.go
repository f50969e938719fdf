package asyncgen

// Instruction is one step of a program body. It receives the execution
// handle and returns a directive telling the program how to proceed.
type Instruction[R, S any] func(e *Exec[R, S]) Action[R]

// Handler routes errors raised while the instruction pointer is within
// [From, To) to the Target instruction, storing the error in slot Slot
// first. A negative Slot discards the error. Handlers cover both Fail
// directives and throw resumptions delivered at a suspension point
// inside the range.
//
// When ranges nest, register the outer handler first: handlers are
// searched most-recently-registered first.
type Handler struct {
	From   int
	To     int
	Target int
	Slot   int
}

// Program is a body built from an explicit instruction table. Unlike
// [Func] bodies it keeps no goroutine: all state between suspensions
// lives in the frame's instruction pointer and slots, which is what
// makes a generator running a program serializable.
//
// Control starts at instruction 0 and falls off the end of the table as
// a normal completion with the zero value. A return resumption
// completes the program immediately with the carried result; programs
// do not model cleanup for early return.
type Program[R, S any] struct {
	steps    []Instruction[R, S]
	handlers []Handler
}

// NewProgram builds a program body from instructions.
func NewProgram[R, S any](steps ...Instruction[R, S]) *Program[R, S] {
	return &Program[R, S]{steps: steps}
}

// Handle registers an error handler and returns p for chaining.
func (p *Program[R, S]) Handle(h Handler) *Program[R, S] {
	p.handlers = append(p.handlers, h)
	return p
}

// Step implements [Body].
func (p *Program[R, S]) Step(fr *Frame[R, S]) Outcome[R] {
	e := &Exec[R, S]{fr: fr}

	switch re := fr.Resumption(); re.Kind {
	case ResumeReturn:
		return Finished(re.Result)
	case ResumeThrow:
		// The error surfaces at the instruction that suspended, one
		// behind the resume point.
		if !p.route(fr, fr.IP()-1, re.Err) {
			return Raised[R](re.Err)
		}
	}

	for {
		ip := fr.IP()
		if ip < 0 || ip >= len(p.steps) {
			var zero R
			return Finished(zero)
		}
		act := p.steps[ip](e)
		switch act.kind {
		case actContinue:
			fr.SetIP(ip + 1)
		case actGoto:
			fr.SetIP(act.target)
		case actYield:
			fr.SetIP(ip + 1)
			return Yielded(act.value)
		case actAwait:
			fr.SetIP(ip + 1)
			return Awaited[R](act.op)
		case actReturn:
			return Finished(act.value)
		case actFail:
			if !p.route(fr, ip, act.err) {
				return Raised[R](act.err)
			}
		default:
			panic("asyncgen: instruction returned invalid action")
		}
	}
}

// route transfers control to the innermost handler covering ip,
// reporting whether one matched.
func (p *Program[R, S]) route(fr *Frame[R, S], ip int, err error) bool {
	for i := len(p.handlers) - 1; i >= 0; i-- {
		h := p.handlers[i]
		if ip >= h.From && ip < h.To {
			if h.Slot >= 0 {
				fr.Slots().Set(h.Slot, err)
			}
			fr.SetIP(h.Target)
			return true
		}
	}
	return false
}

type actionKind int

const (
	actInvalid actionKind = iota
	actContinue
	actGoto
	actYield
	actAwait
	actReturn
	actFail
)

// Action is the directive an instruction returns. Actions are built
// with the methods on [Exec]; the zero Action is invalid.
type Action[R any] struct {
	kind   actionKind
	value  R
	err    error
	op     any
	target int
}

// Exec is the execution handle passed to instructions: access to the
// frame, to the resumption being delivered, and constructors for every
// directive.
type Exec[R, S any] struct {
	fr *Frame[R, S]
}

// Frame returns the frame the program runs on.
func (e *Exec[R, S]) Frame() *Frame[R, S] { return e.fr }

// Slots returns the frame's slot storage.
func (e *Exec[R, S]) Slots() *Slots { return e.fr.Slots() }

// Resumed returns the resumption that entered the body. After a yield,
// its Send field carries the value passed to Next.
func (e *Exec[R, S]) Resumed() Resumption[R, S] { return e.fr.Resumption() }

// Awaited returns the settled value of the await instruction that just
// resumed, consuming it. It reports false when the program is not
// resuming from a successful await.
func (e *Exec[R, S]) Awaited() (any, bool) { return e.fr.TakeAwaited() }

// Continue advances to the next instruction.
func (e *Exec[R, S]) Continue() Action[R] { return Action[R]{kind: actContinue} }

// Goto transfers control to the instruction at ip.
func (e *Exec[R, S]) Goto(ip int) Action[R] { return Action[R]{kind: actGoto, target: ip} }

// Yield suspends the program, producing v, and resumes at the next
// instruction.
func (e *Exec[R, S]) Yield(v R) Action[R] { return Action[R]{kind: actYield, value: v} }

// Await parks the program until op settles, then resumes at the next
// instruction, where [Exec.Awaited] returns the settled value.
func (e *Exec[R, S]) Await(op any) Action[R] { return Action[R]{kind: actAwait, op: op} }

// Return completes the program normally with v.
func (e *Exec[R, S]) Return(v R) Action[R] { return Action[R]{kind: actReturn, value: v} }

// Fail raises err: control transfers to the innermost covering handler,
// or the program completes abruptly.
func (e *Exec[R, S]) Fail(err error) Action[R] { return Action[R]{kind: actFail, err: err} }
