package asyncgen

import "github.com/gammazero/deque"

// request pairs a resumption with the settlement callbacks of the
// promise answering it.
type request[R, S any] struct {
	re      Resumption[R, S]
	fulfill func(IterResult[R])
	reject  func(error)
}

// requestQueue is the FIFO of pending resumption requests. The zero
// value is an empty queue ready to use.
type requestQueue[R, S any] struct {
	d deque.Deque[*request[R, S]]
}

func (q *requestQueue[R, S]) push(r *request[R, S]) { q.d.PushBack(r) }

// front returns the head request without removing it; the head stays
// queued while the body runs on its behalf.
func (q *requestQueue[R, S]) front() *request[R, S] { return q.d.Front() }

func (q *requestQueue[R, S]) pop() *request[R, S] { return q.d.PopFront() }

func (q *requestQueue[R, S]) len() int { return q.d.Len() }
