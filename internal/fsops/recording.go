package fsops

import (
	"sync"

	"rmfast/internal/graph"
)

// Call is one recorded delete invocation.
type Call struct {
	Path string
	Kind graph.Kind
}

// Recording implements Backend without touching the filesystem. It records
// every call, which makes it both the dry-run backend and the instrument
// that proves dry-run never deletes. Errors can be scripted per path to
// simulate locked or unreadable entries.
type Recording struct {
	mu    sync.Mutex
	calls []Call
	fail  map[string]error
}

// NewRecording creates an empty recording backend.
func NewRecording() *Recording {
	return &Recording{fail: make(map[string]error)}
}

// FailWith makes subsequent deletes of path return err.
func (r *Recording) FailWith(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[path] = err
}

func (r *Recording) Delete(path string, kind graph.Kind, attr graph.Attr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Path: path, Kind: kind})
	return r.fail[path]
}

// Calls returns a copy of the recorded invocations in dispatch order.
func (r *Recording) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}
