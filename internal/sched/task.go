package sched

import "context"

// Handler performs the work of one task. It receives the scheduler that
// dispatched it and the task's opaque arguments.
type Handler func(ctx context.Context, s *Scheduler, args any) (any, error)

// Task is one unit of submitted work.
type Task struct {
	Handler Handler
	Args    any
}

// NewTask pairs a handler with its arguments.
func NewTask(h Handler, args any) Task {
	return Task{Handler: h, Args: args}
}

// outcome is the settled state of a dispatched task. Zero values are valid
// successes, so settlement is tracked explicitly rather than by the value.
type outcome int

const (
	outcomeUnsettled outcome = iota
	outcomeSuccess
	outcomeFailure
)

// entry is the scheduler's bookkeeping record for a submitted task.
type entry struct {
	seq     uint64 // submission order, starts at 1
	task    Task
	outcome outcome
	value   any
	err     error
}

func (e *entry) settled() bool { return e.outcome != outcomeUnsettled }
