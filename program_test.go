package asyncgen

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// drain collects every value a generator produces for repeated next()
// until done, returning the yields and the final result.
func drain[R, S any](t *testing.T, g *Generator[R, S]) ([]R, R) {
	t.Helper()
	var send S
	var yields []R
	for {
		res, err := g.Next(send).Await(context.Background())
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if res.Done {
			return yields, res.Value
		}
		yields = append(yields, res.Value)
	}
}

func TestProgramGotoLoop(t *testing.T) {
	const counter = 0
	g := New[int, int](NewProgram[int, int](
		func(e *Exec[int, int]) Action[int] {
			e.Slots().Set(counter, 3)
			return e.Continue()
		},
		func(e *Exec[int, int]) Action[int] {
			c := e.Slots().Get(counter).(int)
			if c == 0 {
				return e.Goto(3)
			}
			e.Slots().Set(counter, c-1)
			return e.Yield(c)
		},
		func(e *Exec[int, int]) Action[int] { return e.Goto(1) },
	))

	yields, final := drain(t, g)
	if !reflect.DeepEqual(yields, []int{3, 2, 1}) {
		t.Errorf("yields = %v, expect [3 2 1]", yields)
	}
	// The goto past the end of the table is a normal completion with
	// the zero value.
	if final != 0 {
		t.Errorf("final = %d, expect 0", final)
	}
}

func TestProgramFailRoutesToHandler(t *testing.T) {
	const errSlot = 3
	g := New[string, int](NewProgram[string, int](
		func(e *Exec[string, int]) Action[string] { return e.Fail(errBoom) },
		func(e *Exec[string, int]) Action[string] { return e.Return("unreached") },
		func(e *Exec[string, int]) Action[string] {
			err := e.Slots().Get(errSlot).(error)
			return e.Return("handled " + err.Error())
		},
	).Handle(Handler{From: 0, To: 2, Target: 2, Slot: errSlot}))

	res, err := g.Next(0).Await(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != "handled boom" || !res.Done {
		t.Errorf("got %+v", res)
	}
}

func TestProgramFailUnhandled(t *testing.T) {
	g := New[string, int](NewProgram[string, int](
		func(e *Exec[string, int]) Action[string] { return e.Fail(errBoom) },
	))

	_, err := g.Next(0).Await(context.Background())
	if !errors.Is(err, errBoom) {
		t.Errorf("got %v, expect %v", err, errBoom)
	}
	if g.State() != Completed {
		t.Errorf("state = %v, expect completed", g.State())
	}
}

func TestProgramHandlerDiscardsError(t *testing.T) {
	g := New[string, int](NewProgram[string, int](
		func(e *Exec[string, int]) Action[string] { return e.Fail(errBoom) },
		func(e *Exec[string, int]) Action[string] { return e.Return("recovered") },
	).Handle(Handler{From: 0, To: 1, Target: 1, Slot: -1}))

	res, err := g.Next(0).Await(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != "recovered" {
		t.Errorf("got %+v", res)
	}
	if g.Frame().Slots().Has(0) {
		t.Error("negative handler slot still stored the error")
	}
}

func TestProgramNestedHandlers(t *testing.T) {
	// The handler registered last is innermost and wins for the
	// overlap.
	g := New[string, int](NewProgram[string, int](
		func(e *Exec[string, int]) Action[string] { return e.Fail(errBoom) },
		func(e *Exec[string, int]) Action[string] { return e.Return("outer") },
		func(e *Exec[string, int]) Action[string] { return e.Return("inner") },
	).
		Handle(Handler{From: 0, To: 1, Target: 1, Slot: -1}).
		Handle(Handler{From: 0, To: 1, Target: 2, Slot: -1}))

	res, err := g.Next(0).Await(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != "inner" {
		t.Errorf("got %q, expect inner", res.Value)
	}
}

func TestProgramThrowAtYieldRouted(t *testing.T) {
	const errSlot = 0
	g := New[string, int](NewProgram[string, int](
		func(e *Exec[string, int]) Action[string] { return e.Yield("ready") },
		func(e *Exec[string, int]) Action[string] { return e.Return("normal") },
		func(e *Exec[string, int]) Action[string] {
			err := e.Slots().Get(errSlot).(error)
			return e.Yield("caught " + err.Error())
		},
		func(e *Exec[string, int]) Action[string] { return e.Return("after catch") },
	).Handle(Handler{From: 0, To: 2, Target: 2, Slot: errSlot}))

	ctx := context.Background()
	if res, _ := g.Next(0).Await(ctx); res.Value != "ready" {
		t.Fatalf("got %+v", res)
	}

	// The throw resumes at instruction 1, surfaces at the suspended
	// yield at 0, and routes to the handler.
	res, err := g.Throw(errBoom).Await(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != "caught boom" || res.Done {
		t.Errorf("got %+v", res)
	}

	res, err = g.Next(0).Await(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != "after catch" || !res.Done {
		t.Errorf("got %+v", res)
	}
}

func TestProgramReturnResumption(t *testing.T) {
	g := New[int, int](NewProgram[int, int](
		func(e *Exec[int, int]) Action[int] { return e.Yield(1) },
		func(e *Exec[int, int]) Action[int] { return e.Return(2) },
	))

	ctx := context.Background()
	if res, _ := g.Next(0).Await(ctx); res.Value != 1 {
		t.Fatalf("got %+v", res)
	}
	res, err := g.Return(50).Await(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res, IterResult[int]{Value: 50, Done: true}) {
		t.Errorf("got %+v", res)
	}
}

func TestProgramAwaitInline(t *testing.T) {
	g := New[int, int](NewProgram[int, int](
		func(e *Exec[int, int]) Action[int] { return e.Await(41) },
		func(e *Exec[int, int]) Action[int] {
			v, ok := e.Awaited()
			if !ok {
				return e.Fail(errBoom)
			}
			return e.Return(v.(int) + 1)
		},
	))

	// The default awaiter settles non-promise targets synchronously,
	// so a single next drives through the await.
	res, err := g.Next(0).Await(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res, IterResult[int]{Value: 42, Done: true}) {
		t.Errorf("got %+v", res)
	}
}
