// internal/sched/schedulerEvent.go

package sched

import (
	"time"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusEnqueue StatusKind = iota
	StatusDispatch
	StatusSettle
	StatusEmit
	StatusState
	StatusDone
)

// StatusEvent is emitted on every bookkeeping change of the scheduler
type StatusEvent struct {
	Time     time.Time
	Kind     StatusKind
	Seq      uint64 // task sequence, 0 for scheduler-wide events
	State    State
	Failed   bool // settle/emit of a failed task
	InFlight int
	Pending  int
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusEnqueue:
		return "Enqueue"
	case StatusDispatch:
		return "Dispatch"
	case StatusSettle:
		return "Settle"
	case StatusEmit:
		return "Emit"
	case StatusState:
		return "State"
	case StatusDone:
		return "Done"
	default:
		return "Unknown"
	}
}
