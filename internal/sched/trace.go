package sched

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

// CSVTrace records scheduler status events as CSV rows. A trace is written
// only by the scheduler's notification drainer, so it needs no locking.
type CSVTrace struct {
	w      *csv.Writer
	closer io.Closer
}

var traceHeader = []string{"timestamp", "event", "seq", "state", "failed", "in_flight", "pending"}

// NewCSVTrace creates (or truncates) the file at path and writes the header.
func NewCSVTrace(path string) (*CSVTrace, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	t, err := newCSVTrace(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

// NewCSVTraceWriter writes the trace to w. Close flushes but does not close w.
func NewCSVTraceWriter(w io.Writer) (*CSVTrace, error) {
	return newCSVTrace(w, nil)
}

func newCSVTrace(w io.Writer, closer io.Closer) (*CSVTrace, error) {
	t := &CSVTrace{w: csv.NewWriter(w), closer: closer}
	if err := t.w.Write(traceHeader); err != nil {
		return nil, err
	}
	t.w.Flush()
	return t, t.w.Error()
}

// Write appends one event and flushes it.
func (t *CSVTrace) Write(ev StatusEvent) error {
	rec := []string{
		ev.Time.Format(time.RFC3339Nano),
		ev.Kind.String(),
		strconv.FormatUint(ev.Seq, 10),
		ev.State.String(),
		strconv.FormatBool(ev.Failed),
		strconv.Itoa(ev.InFlight),
		strconv.Itoa(ev.Pending),
	}
	if err := t.w.Write(rec); err != nil {
		return err
	}
	t.w.Flush()
	return t.w.Error()
}

// Close flushes the trace and closes the underlying file, if it owns one.
func (t *CSVTrace) Close() error {
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		return err
	}
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
