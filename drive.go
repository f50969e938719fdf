package asyncgen

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run drives a generator to completion, calling f for each value it
// yields and sending back each value that f returns. It returns the
// generator's final return value.
//
// The generator is run to completion, but f might panic or the context
// might be canceled, in which case we don't want to leave the body
// suspended and interrupt it with a return instead.
func Run[R, S any](ctx context.Context, g *Generator[R, S], f func(R) S) (R, error) {
	defer func() {
		if !g.Done() {
			var zero R
			g.Return(zero)
		}
	}()

	var send S
	for {
		res, err := g.Next(send).Await(ctx)
		if err != nil {
			var zero R
			return zero, err
		}
		if res.Done {
			return res.Value, nil
		}
		send = f(res.Value)
	}
}

// RunAll drives several generators to completion concurrently, one
// goroutine each, calling f with the generator's index for every
// yielded value. It waits for all of them; the first error cancels the
// context the remaining drivers run under.
func RunAll[R, S any](ctx context.Context, gens []*Generator[R, S], f func(i int, v R) S) error {
	eg, ctx := errgroup.WithContext(ctx)
	for i, g := range gens {
		i, g := i, g
		eg.Go(func() error {
			_, err := Run(ctx, g, func(v R) S { return f(i, v) })
			return err
		})
	}
	return eg.Wait()
}
