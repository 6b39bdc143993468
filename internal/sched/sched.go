// Package sched executes a dependency graph bottom-up: Kahn's algorithm
// run by a fixed worker pool, one atomic decrement per parent and no other
// coordination.
package sched

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/baxromumarov/scoped/chanx"
	"github.com/rs/zerolog"

	"rmfast/internal/fsops"
	"rmfast/internal/graph"
	"rmfast/internal/report"
)

// Scheduler drains a graph through a backend with bounded parallelism.
type Scheduler struct {
	backend fsops.Backend
	workers int
	log     zerolog.Logger
}

// New creates a scheduler with the given pool size. workers <= 0 selects
// the detected core count.
func New(backend fsops.Backend, workers int, log zerolog.Logger) *Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scheduler{backend: backend, workers: workers, log: log}
}

// Run blocks until every node is terminal or ctx is cancelled. Outcomes go
// to agg; the final Report is the caller's to snapshot.
//
// The ready queue is seeded with every leaf. Each worker pops a node,
// resolves it, then decrements its parent's outstanding-children counter;
// the worker that drops a counter to zero pushes the parent. The channel's
// capacity equals the node count, so a push can never block and no lock is
// ever held across a backend syscall.
func (s *Scheduler) Run(ctx context.Context, g *graph.Graph, agg *report.Aggregator) {
	total := g.Len()
	if total == 0 {
		return
	}

	ready := make(chan graph.NodeID, total)
	var terminal atomic.Int64

	// complete propagates one node's terminal state upward and closes the
	// queue once the whole forest is terminal. Exactly one goroutine sees
	// the counter hit total.
	var complete func(id graph.NodeID)
	complete = func(id graph.NodeID) {
		n := g.Node(id)
		if n.Parent != graph.None {
			parent := g.Node(n.Parent)
			if n.State() == graph.Failed {
				parent.MarkChildFailed()
			}
			if parent.ChildDone() {
				parent.SetState(graph.Ready)
				ready <- n.Parent
			}
		}
		if terminal.Add(1) == int64(total) {
			close(ready)
		}
	}

	for _, id := range g.Leaves() {
		if g.Node(id).State() == graph.Discovered {
			g.Node(id).SetState(graph.Ready)
		}
		ready <- id
	}

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, g, ready, agg, complete)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) worker(ctx context.Context, g *graph.Graph, ready <-chan graph.NodeID, agg *report.Aggregator, complete func(graph.NodeID)) {
	for {
		// Cooperative cancellation: checked between dispatches only, an
		// in-flight backend call always runs to completion. The explicit
		// check matters because Recv's select may still pick a buffered
		// node over a cancelled context.
		if ctx.Err() != nil {
			return
		}
		id, ok, err := chanx.Recv(ctx, ready)
		if err != nil || !ok {
			return
		}
		s.resolve(g, id, agg)
		complete(id)
	}
}

// resolve drives one ready node to a terminal state.
func (s *Scheduler) resolve(g *graph.Graph, id graph.NodeID, agg *report.Aggregator) {
	n := g.Node(id)

	switch {
	case n.State() == graph.Deleted:
		// Vanished during the scan; already gone is a success.
		agg.Deleted(n.Path, n.Kind, n.Size)

	case n.State() == graph.Failed:
		// The scanner could not list it; report and let the failure
		// propagate to the parent.
		agg.Failed(n.Path, n.Kind, n.Reason())

	case n.ChildFailed():
		// At least one child survived, so the OS would reject the rmdir
		// anyway. Fail without a backend call; siblings keep going.
		n.Fail("skipped: directory still has undeleted entries")
		agg.Failed(n.Path, n.Kind, n.Reason())

	default:
		n.SetState(graph.Deleting)
		if err := s.backend.Delete(n.Path, n.Kind, n.Attr); err != nil {
			s.log.Debug().Str("path", n.Path).Err(err).Msg("delete failed")
			n.Fail(err.Error())
			agg.Failed(n.Path, n.Kind, n.Reason())
		} else {
			n.SetState(graph.Deleted)
			agg.Deleted(n.Path, n.Kind, n.Size)
		}
	}
}
