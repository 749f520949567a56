// internal/sched/scheduler.go

package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/trees/redblacktree"
)

// State is the lifecycle state of a Scheduler.
type State int

const (
	StateInit State = iota
	StateStarted
	StatePaused
	StateClosed // terminal
)

func (st State) String() string {
	switch st {
	case StateInit:
		return "init"
	case StateStarted:
		return "started"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
	ErrHandlerPanic       = errors.New("task handler panicked")
)

// Option customizes a Scheduler at construction.
type Option func(*Scheduler)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithContext sets the context handed to every handler.
func WithContext(ctx context.Context) Option {
	return func(s *Scheduler) { s.ctx = ctx }
}

// WithTrace writes every StatusEvent to t.
func WithTrace(t *CSVTrace) Option {
	return func(s *Scheduler) { s.trace = t }
}

// Scheduler runs submitted tasks with bounded concurrency and emits their
// outcomes in completion order (ModeAsap) or submission order (ModeFifo).
type Scheduler struct {
	mu          sync.Mutex             // protects the scheduler state
	name        string                 // diagnostics only
	mode        Mode                   // fixed at construction
	concurrency int                    // max tasks in flight
	state       State                  // lifecycle state
	inFlight    int                    // tasks whose handler has not returned
	nextSeq     uint64                 // last assigned submission sequence
	pending     *linkedlistqueue.Queue // submitted, not yet dispatched
	dispatched  *redblacktree.Tree     // dispatched, not yet emitted, ordered by seq
	doneSent    bool

	// notification-related
	outbox   []notice // decided under mu, delivered in order by drain
	draining bool
	done     chan struct{}
	onData   []func(any)
	onError  []func(error)
	onDone   []func()

	ctx    context.Context
	logger *slog.Logger
	trace  *CSVTrace
}

// New creates a Scheduler in the init state.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, cfg.Concurrency)
	}
	if cfg.Mode != ModeAsap && cfg.Mode != ModeFifo {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, cfg.Mode)
	}

	s := &Scheduler{
		name:        cfg.Name,
		mode:        cfg.Mode,
		concurrency: cfg.Concurrency,
		state:       StateInit,
		pending:     linkedlistqueue.New(),
		dispatched:  redblacktree.NewWith(cmp),
		done:        make(chan struct{}),
		ctx:         context.Background(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "scheduler", "scheduler", s.name)
	s.logger.Info("created scheduler", "concurrency", s.concurrency, "mode", s.mode)
	return s, nil
}

func (s *Scheduler) Name() string { return s.name }
func (s *Scheduler) Mode() Mode   { return s.mode }

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnData registers fn to receive the value of every successful task.
func (s *Scheduler) OnData(fn func(any)) *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onData = append(s.onData, fn)
	return s
}

// OnError registers fn to receive the error of every failed task.
func (s *Scheduler) OnError(fn func(error)) *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = append(s.onError, fn)
	return s
}

// OnDone registers fn to run once the closed scheduler has drained.
func (s *Scheduler) OnDone(fn func()) *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDone = append(s.onDone, fn)
	return s
}

// Start moves the scheduler to the started state and admits as many pending
// tasks as capacity allows. Starting a started scheduler only re-runs
// admission; starting a closed one does nothing.
func (s *Scheduler) Start() *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		s.logger.Warn("start ignored, scheduler is closed")
		return s
	}
	s.changeStateLocked(StateStarted)
	s.dispatchLocked()
	return s
}

// Pause stops submissions from triggering admission. Dispatched tasks keep
// running, and their settlement still admits pending tasks.
func (s *Scheduler) Pause() *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStarted {
		s.logger.Debug("pause ignored", "state", s.state)
		return s
	}
	s.changeStateLocked(StatePaused)
	return s
}

// Close moves the scheduler to its terminal state. Done fires once pending,
// dispatched and in-flight work have all drained; if that is already the
// case, it fires right away.
func (s *Scheduler) Close() *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.changeStateLocked(StateClosed)
	s.checkDoneLocked()
	return s
}

// Enqueue appends t to the pending queue. It is accepted in every state, but
// only triggers admission while the scheduler is started.
func (s *Scheduler) Enqueue(t Task) *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	e := &entry{seq: s.nextSeq, task: t}
	s.pending.Enqueue(e)
	s.logger.Debug("enqueued task", "seq", e.seq, "pending", s.pending.Size())
	s.record(StatusEnqueue, e.seq, false)

	if s.state == StateStarted {
		s.dispatchLocked()
	}
	return s
}

// Wait blocks until done has been delivered to every OnDone observer, or ctx ends.
func (s *Scheduler) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats is a point-in-time view of the scheduler's bookkeeping.
type Stats struct {
	Name        string
	State       State
	Mode        Mode
	Concurrency int
	InFlight    int
	Pending     int
	Dispatched  int // dispatched but not yet emitted
}

// Stats returns a snapshot of the scheduler's counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Scheduler) statsLocked() Stats {
	return Stats{
		Name:        s.name,
		State:       s.state,
		Mode:        s.mode,
		Concurrency: s.concurrency,
		InFlight:    s.inFlight,
		Pending:     s.pending.Size(),
		Dispatched:  s.dispatched.Size(),
	}
}

// dispatchLocked admits pending tasks while capacity allows, then checks
// whether a closed scheduler has fully drained.
func (s *Scheduler) dispatchLocked() {
	for !s.pending.Empty() && s.inFlight < s.concurrency {
		v, _ := s.pending.Dequeue()
		e := v.(*entry)
		s.dispatched.Put(e.seq, e)
		s.inFlight++
		s.record(StatusDispatch, e.seq, false)
		go s.run(e)
	}
	s.checkDoneLocked()
}

func (s *Scheduler) checkDoneLocked() {
	if s.doneSent || s.state != StateClosed {
		return
	}
	if !s.pending.Empty() || !s.dispatched.Empty() || s.inFlight != 0 {
		return
	}
	s.doneSent = true
	s.logger.Info("scheduler drained", "tasks", s.nextSeq)
	s.record(StatusDone, 0, false)
	s.push(notice{kind: noticeDone})
}

func (s *Scheduler) run(e *entry) {
	value, err := s.invoke(e)
	s.settle(e, value, err)
}

// invoke calls the handler, turning a panic into a failed settlement.
func (s *Scheduler) invoke(e *entry) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("%w: task %d: %v", ErrHandlerPanic, e.seq, r)
		}
	}()
	return e.task.Handler(s.ctx, s, e.task.Args)
}

func (s *Scheduler) settle(e *entry, value any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		e.outcome, e.err = outcomeFailure, err
	} else {
		e.outcome, e.value = outcomeSuccess, value
	}
	s.record(StatusSettle, e.seq, err != nil)

	if s.mode == ModeFifo {
		// emit the settled prefix; later tasks wait behind an unsettled head
		for node := s.dispatched.Left(); node != nil; node = s.dispatched.Left() {
			head := node.Value.(*entry)
			if !head.settled() {
				break
			}
			s.emitLocked(head)
		}
	} else {
		s.emitLocked(e)
	}

	s.inFlight--
	st := s.statsLocked()
	s.logger.Debug("utilization",
		"state", st.State,
		"in_flight", st.InFlight,
		"concurrency", st.Concurrency,
		"pending", st.Pending,
		"dispatched", st.Dispatched)
	s.dispatchLocked()
}

// emitLocked removes e from the dispatched set and queues its outcome.
func (s *Scheduler) emitLocked(e *entry) {
	s.dispatched.Remove(e.seq)
	failed := e.outcome == outcomeFailure
	s.record(StatusEmit, e.seq, failed)
	if failed {
		s.push(notice{kind: noticeError, err: e.err})
	} else {
		s.push(notice{kind: noticeData, value: e.value})
	}
	e.task, e.value, e.err = Task{}, nil, nil
}

func (s *Scheduler) changeStateLocked(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	s.logger.Debug("change state", "from", from, "to", to)
	s.record(StatusState, 0, false)
}

// record queues a status event for the trace, if one is attached.
func (s *Scheduler) record(kind StatusKind, seq uint64, failed bool) {
	if s.trace == nil {
		return
	}
	s.push(notice{kind: noticeStatus, status: StatusEvent{
		Time:     time.Now(),
		Kind:     kind,
		Seq:      seq,
		State:    s.state,
		Failed:   failed,
		InFlight: s.inFlight,
		Pending:  s.pending.Size(),
	}})
}

type noticeKind int

const (
	noticeData noticeKind = iota
	noticeError
	noticeDone
	noticeStatus
)

type notice struct {
	kind   noticeKind
	value  any
	err    error
	status StatusEvent
}

// push appends n to the outbox and makes sure a drainer is running.
// Must be called with mu held.
func (s *Scheduler) push(n notice) {
	s.outbox = append(s.outbox, n)
	if !s.draining {
		s.draining = true
		go s.drain()
	}
}

// drain delivers outbox notices one at a time, in the order they were
// decided, without holding mu so observers may call back into the scheduler.
func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		if len(s.outbox) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		n := s.outbox[0]
		s.outbox[0] = notice{}
		s.outbox = s.outbox[1:]
		onData, onError, onDone := s.onData, s.onError, s.onDone
		s.mu.Unlock()

		switch n.kind {
		case noticeData:
			for _, fn := range onData {
				fn(n.value)
			}
		case noticeError:
			for _, fn := range onError {
				fn(n.err)
			}
		case noticeDone:
			for _, fn := range onDone {
				fn()
			}
			close(s.done)
		case noticeStatus:
			if err := s.trace.Write(n.status); err != nil {
				s.logger.Warn("trace write failed", "error", err)
			}
		}
	}
}

// cmp orders dispatched entries by submission sequence.
func cmp(a, b any) int {
	ka, kb := a.(uint64), b.(uint64)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}
