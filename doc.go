// Package asyncgen implements the control logic of asynchronous generators:
// objects that interleave suspension (yield), asynchronous waiting (await),
// and resumption requests arriving from consumers as promises.
//
// A [Generator] owns a suspendable body, a FIFO queue of resumption
// requests, and a four-state machine (suspended-start, executing,
// suspended-yield, completed). Consumers call [Generator.Next],
// [Generator.Return] or [Generator.Throw]; each call returns a [Promise]
// that settles with an [IterResult] once the body has produced the
// corresponding value. Requests received while the body is running are
// queued and served strictly in arrival order.
//
// Bodies can be written two ways. [Func] runs an ordinary function on its
// own goroutine and hands it a [Task] with blocking Yield and Await
// methods. [NewProgram] builds a body from an explicit instruction table
// with an instruction pointer and slot storage, which makes the suspended
// state inspectable and serializable (see [Generator.MarshalAppend]).
//
// Await targets are resolved through an [Awaiter]. The default awaiter
// understands promises created by this package and treats any other value
// as already settled; [Loop.Awaiter] defers settlement onto a single
// consumer-driven event loop.
package asyncgen
