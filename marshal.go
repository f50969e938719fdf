package asyncgen

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrExecuting is returned when marshaling a generator whose body is
// running or parked on an await.
var ErrExecuting = errors.New("asyncgen: generator is executing")

// MarshalAppend appends a snapshot of the generator to the provided
// buffer: its state and its suspension frame. Snapshots can only be
// taken at rest, when the generator is suspended or completed; while a
// request is being served, or the body is parked on an await, it
// returns [ErrExecuting].
//
// A snapshot is faithful for bodies that keep all their state in the
// frame, such as [Program] bodies. A [Func] body that already started
// keeps its state on a goroutine stack, which a snapshot cannot
// capture.
func (g *Generator[R, S]) MarshalAppend(b []byte) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Executing {
		return nil, ErrExecuting
	}
	b = binary.AppendVarint(b, int64(g.state))
	return g.frame.MarshalAppend(b)
}

// Unmarshal restores a snapshot previously produced by MarshalAppend
// into the generator, returning the number of bytes that were read. The
// generator must be at rest, as for MarshalAppend; its body and options
// are kept.
func (g *Generator[R, S]) Unmarshal(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Executing {
		return 0, ErrExecuting
	}
	state, n := binary.Varint(b)
	if n <= 0 || state < int64(SuspendedStart) || state > int64(Completed) || State(state) == Executing {
		return 0, fmt.Errorf("invalid generator state: %v", b)
	}
	fn, err := g.frame.Unmarshal(b[n:])
	if err != nil {
		return 0, err
	}
	g.state = State(state)
	return n + fn, nil
}
