// Package sched implements a bounded-concurrency task scheduler.
//
// A Scheduler accepts tasks in any state, admits them in submission order
// while fewer than its concurrency limit are in flight, and emits each
// outcome to OnData or OnError observers. In ModeAsap outcomes are emitted
// as tasks settle; in ModeFifo they are emitted in submission order, so a
// fast task waits behind any slower task submitted before it. Once closed
// and drained, the scheduler notifies OnDone observers exactly once.
//
// The scheduler never cancels, retries or times out a task. A handler that
// never returns holds its slot forever and, in ModeFifo, blocks every later
// emission.
package sched
