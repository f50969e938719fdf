package asyncgen_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelvm/asyncgen"
)

func TestLoopDrainOrder(t *testing.T) {
	var loop asyncgen.Loop
	var order []string

	loop.Post(func() {
		order = append(order, "a")
		loop.Post(func() { order = append(order, "d") })
	})
	loop.Post(func() { order = append(order, "b") })
	loop.Post(func() { order = append(order, "c") })

	assert.Equal(t, 3, loop.Len())
	n := loop.Drain()
	assert.Equal(t, 4, n, "callbacks posted while draining run in the same drain")
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
	assert.Equal(t, 0, loop.Len())
}

func TestLoopAwaiterDefersSettlement(t *testing.T) {
	var loop asyncgen.Loop
	p := asyncgen.NewPromise[int]()

	g := asyncgen.New[int, int](asyncgen.NewProgram[int, int](
		func(e *asyncgen.Exec[int, int]) asyncgen.Action[int] { return e.Await(p) },
		func(e *asyncgen.Exec[int, int]) asyncgen.Action[int] {
			v, ok := e.Awaited()
			if !ok {
				return e.Fail(errBang)
			}
			return e.Return(v.(int))
		},
	), asyncgen.WithAwaiter(loop.Awaiter(nil)))

	req := g.Next(0)
	require.False(t, req.Settled())
	require.Equal(t, asyncgen.Executing, g.State())

	// Settling the promise only posts to the loop; the generator does
	// not advance until the loop drains.
	p.Fulfill(13)
	assert.False(t, req.Settled())
	assert.Equal(t, 1, loop.Len())

	loop.Drain()
	res, err := req.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, asyncgen.IterResult[int]{Value: 13, Done: true}, res)
}
