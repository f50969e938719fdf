package asyncgen

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strconv"

	"github.com/keelvm/asyncgen/types"
)

// Frame is the suspension frame of a generator: everything the body
// needs to continue from where it stopped. It holds the instruction
// pointer and slot storage used by program bodies, the resumption being
// delivered, and the settled value of the most recent await.
//
// A frame is created when the generator is constructed and lives for the
// generator's whole lifetime. Func bodies keep their state on their own
// goroutine stack and use only the resumption and await slots; program
// bodies keep all state in IP and Slots, which is what makes them
// serializable.
type Frame[R, S any] struct {
	ip    int
	slots Slots

	re       Resumption[R, S]
	awaited  any
	hasAwait bool
}

// IP returns the instruction pointer.
func (f *Frame[R, S]) IP() int { return f.ip }

// SetIP sets the instruction pointer.
func (f *Frame[R, S]) SetIP(ip int) { f.ip = ip }

// Slots returns the frame's slot storage.
func (f *Frame[R, S]) Slots() *Slots { return &f.slots }

// Resumption returns the resumption currently being delivered to the
// body. It is written by the generator before each body step.
func (f *Frame[R, S]) Resumption() Resumption[R, S] { return f.re }

// TakeAwaited returns the settled value of the await the body suspended
// on, consuming it. It reports false if the body is not resuming from a
// successful await; a rejected await is delivered as a throw resumption
// instead.
func (f *Frame[R, S]) TakeAwaited() (any, bool) {
	if !f.hasAwait {
		return nil, false
	}
	v := f.awaited
	f.awaited = nil
	f.hasAwait = false
	return v, true
}

func (f *Frame[R, S]) setResumption(re Resumption[R, S]) { f.re = re }

// awaitResumption turns an await settlement into the resumption that
// re-enters the body: values continue the body through the await slot,
// errors re-enter as a throw at the await point.
func (f *Frame[R, S]) awaitResumption(v any, err error) Resumption[R, S] {
	if err != nil {
		f.awaited = nil
		f.hasAwait = false
		return Resumption[R, S]{Kind: ResumeThrow, Err: err}
	}
	f.awaited = v
	f.hasAwait = true
	return Resumption[R, S]{Kind: ResumeNext}
}

// MarshalAppend appends a serialized Frame to the provided buffer. Only
// the instruction pointer and slots are encoded: frames are marshaled at
// suspension points, where the resumption and await slots are empty.
func (f *Frame[R, S]) MarshalAppend(b []byte) ([]byte, error) {
	b = binary.AppendVarint(b, int64(f.ip))
	return f.slots.MarshalAppend(b)
}

// Unmarshal deserializes a Frame from the provided buffer, returning
// the number of bytes that were read in order to reconstruct the frame.
func (f *Frame[R, S]) Unmarshal(b []byte) (int, error) {
	ip, n := binary.Varint(b)
	if n <= 0 || int64(int(ip)) != ip {
		return 0, fmt.Errorf("invalid frame instruction pointer: %v", b)
	}
	var slots Slots
	sn, err := slots.Unmarshal(b[n:])
	if err != nil {
		return 0, err
	}
	n += sn

	f.ip = int(ip)
	f.slots = slots
	f.re = Resumption[R, S]{}
	f.awaited = nil
	f.hasAwait = false
	return n, nil
}

// Slots is a sparse collection of values indexed by slot number. Program
// bodies use it as their local variable storage.
type Slots struct {
	// This is private so that the data structure is allowed to switch
	// the in-memory representation dynamically (e.g. a map[int]any may
	// be more efficient for very sparse frames).
	values []any
}

// NewSlots creates a Slots from an initial dense set of values.
func NewSlots(values []any) Slots {
	return Slots{values: values}
}

// Has is true if a value is defined for a specific slot.
func (s *Slots) Has(i int) bool {
	return i >= 0 && i < len(s.values) && s.values[i] != nil
}

// Get gets the value for a specific slot.
func (s *Slots) Get(i int) any {
	if !s.Has(i) {
		panic("asyncgen: missing slot " + strconv.Itoa(i))
	}
	return s.values[i]
}

// Lookup gets the value for a specific slot, reporting whether it was set.
func (s *Slots) Lookup(i int) (any, bool) {
	if !s.Has(i) {
		return nil, false
	}
	return s.values[i], true
}

// Delete clears the value for a specific slot.
func (s *Slots) Delete(i int) {
	if !s.Has(i) {
		panic("asyncgen: missing slot " + strconv.Itoa(i))
	}
	s.values[i] = nil
}

// Set sets the value for a specific slot.
func (s *Slots) Set(i int, value any) {
	if n := i + 1; n > len(s.values) {
		s.values = slices.Grow(s.values, n-len(s.values))
		s.values = s.values[:n]
	}
	s.values[i] = value
}

func (s *Slots) shrink() {
	i := len(s.values) - 1
	for i >= 0 && s.values[i] == nil {
		i--
	}
	s.values = s.values[:i+1]
}

// MarshalAppend appends the slot values to the provided buffer. Values
// must be of a type supported by the types package.
func (s *Slots) MarshalAppend(b []byte) ([]byte, error) {
	s.shrink()

	// This is a sparse map. For each value we encode the value as well
	// as its slot number. We also encode the number of values and the
	// length of the data structure; the latter is a hint so that the
	// deserializer can preallocate the necessary space.
	var count int
	for _, v := range s.values {
		if v == nil {
			continue
		}
		count++
	}

	b = binary.AppendVarint(b, int64(len(s.values)))
	b = binary.AppendVarint(b, int64(count))

	for i, v := range s.values {
		if v == nil {
			continue
		}
		b = binary.AppendVarint(b, int64(i))

		var err error
		b, err = types.AppendValue(b, v)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return b, nil
}

// Unmarshal deserializes Slots from the provided buffer, returning the
// number of bytes that were read in order to reconstruct the slots.
func (s *Slots) Unmarshal(b []byte) (int, error) {
	size, n := binary.Varint(b)
	if n <= 0 || size < 0 || int64(int(size)) != size {
		return 0, fmt.Errorf("invalid slots size: %v", b)
	}

	count, vn := binary.Varint(b[n:])
	if vn <= 0 || count < 0 || count > size {
		return 0, fmt.Errorf("invalid slots count: %v", b)
	}
	n += vn

	values := make([]any, size)
	for i := 0; i < int(count); i++ {
		id, vn := binary.Varint(b[n:])
		if vn <= 0 || int64(int(id)) != id || int(id) < 0 || int(id) >= len(values) {
			return 0, fmt.Errorf("invalid slot number: %v", b)
		}
		n += vn

		v, sn, err := types.ConsumeValue(b[n:])
		if err != nil {
			return 0, fmt.Errorf("invalid slot value: %w", err)
		}
		n += sn

		values[id] = v
	}

	s.values = values
	return n, nil
}
