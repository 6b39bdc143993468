// Package report accumulates per-entry outcomes into the final Report and
// feeds the live event stream consumed by progress rendering and the
// deletion journal.
package report

import (
	"sync"
	"time"

	"github.com/baxromumarov/scoped/chanx"
	"github.com/puzpuzpuz/xsync/v4"

	"rmfast/internal/graph"
)

// Outcome is the terminal result of one entry.
type Outcome uint8

const (
	OutcomeDeleted Outcome = iota
	OutcomeFailed
)

func (o Outcome) String() string {
	if o == OutcomeDeleted {
		return "deleted"
	}
	return "failed"
}

// Event is published once per entry when it reaches a terminal state.
type Event struct {
	Path    string
	Kind    graph.Kind
	Outcome Outcome
	Size    int64
	Reason  string // set only for OutcomeFailed
}

// Failure is one unrecoverable entry in the final Report.
type Failure struct {
	Path   string
	Reason string
}

// Report is the immutable result of a job. Counts cover the whole forest:
// FilesDeleted includes symlinks, BytesFreed is best effort from scan-time
// sizes.
type Report struct {
	FilesDeleted int64
	DirsDeleted  int64
	BytesFreed   int64
	Scanned      int64
	Failures     []Failure
	Elapsed      time.Duration
}

// Failed reports whether any entry could not be deleted.
func (r *Report) Failed() bool {
	return len(r.Failures) > 0
}

// Aggregator collects outcomes from all scheduler workers. Counters are
// striped so concurrent adds never contend; the failures slice is the only
// mutex-guarded state. Each entry is terminal exactly once, so nothing is
// ever double counted.
type Aggregator struct {
	files *xsync.Counter
	dirs  *xsync.Counter
	bytes *xsync.Counter

	mu       sync.Mutex
	failures []Failure

	events *chanx.Closable[Event]
}

// NewAggregator creates an aggregator whose event buffer holds capacity
// events. Sized to the node count, publishing can never block a worker.
func NewAggregator(capacity int) *Aggregator {
	return &Aggregator{
		files:  xsync.NewCounter(),
		dirs:   xsync.NewCounter(),
		bytes:  xsync.NewCounter(),
		events: chanx.NewClosable[Event](capacity),
	}
}

// Deleted records a successful removal.
func (a *Aggregator) Deleted(path string, kind graph.Kind, size int64) {
	if kind == graph.Dir {
		a.dirs.Inc()
	} else {
		a.files.Inc()
		a.bytes.Add(size)
	}
	a.publish(Event{Path: path, Kind: kind, Outcome: OutcomeDeleted, Size: size})
}

// Failed records an entry that could not be removed.
func (a *Aggregator) Failed(path string, kind graph.Kind, reason string) {
	a.mu.Lock()
	a.failures = append(a.failures, Failure{Path: path, Reason: reason})
	a.mu.Unlock()
	a.publish(Event{Path: path, Kind: kind, Outcome: OutcomeFailed, Reason: reason})
}

func (a *Aggregator) publish(ev Event) {
	// TrySend rather than Send: the buffer is sized for every possible
	// event, so a full buffer means a misconfigured caller, and dropping
	// beats deadlocking a worker.
	_ = a.events.TrySend(ev)
}

// Events returns the live stream. It is finite: closed when the job ends.
func (a *Aggregator) Events() <-chan Event {
	return a.events.Chan()
}

// Close ends the event stream. Safe to call more than once.
func (a *Aggregator) Close() {
	a.events.Close()
}

// Snapshot builds the final Report. Call only after all workers stopped.
func (a *Aggregator) Snapshot(scanned int, elapsed time.Duration) Report {
	a.mu.Lock()
	failures := make([]Failure, len(a.failures))
	copy(failures, a.failures)
	a.mu.Unlock()

	return Report{
		FilesDeleted: a.files.Value(),
		DirsDeleted:  a.dirs.Value(),
		BytesFreed:   a.bytes.Value(),
		Scanned:      int64(scanned),
		Failures:     failures,
		Elapsed:      elapsed,
	}
}
