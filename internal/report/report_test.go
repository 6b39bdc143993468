package report

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmfast/internal/graph"
)

func TestAggregatorCounts(t *testing.T) {
	agg := NewAggregator(8)

	agg.Deleted("/x/a.txt", graph.File, 100)
	agg.Deleted("/x/link", graph.Symlink, 0)
	agg.Deleted("/x/sub", graph.Dir, 0)
	agg.Failed("/x/locked.txt", graph.File, "locked")
	agg.Close()

	rep := agg.Snapshot(4, 2*time.Second)

	assert.Equal(t, int64(2), rep.FilesDeleted, "symlinks count as files")
	assert.Equal(t, int64(1), rep.DirsDeleted)
	assert.Equal(t, int64(100), rep.BytesFreed)
	assert.Equal(t, int64(4), rep.Scanned)
	assert.Equal(t, 2*time.Second, rep.Elapsed)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "/x/locked.txt", rep.Failures[0].Path)
	assert.Equal(t, "locked", rep.Failures[0].Reason)
	assert.True(t, rep.Failed())
}

func TestEventStreamIsFiniteAndComplete(t *testing.T) {
	agg := NewAggregator(4)

	agg.Deleted("/x/a", graph.File, 1)
	agg.Failed("/x/b", graph.File, "io error")
	agg.Close()

	var events []Event
	for ev := range agg.Events() {
		events = append(events, ev)
	}

	require.Len(t, events, 2)
	assert.Equal(t, OutcomeDeleted, events[0].Outcome)
	assert.Equal(t, "/x/a", events[0].Path)
	assert.Equal(t, OutcomeFailed, events[1].Outcome)
	assert.Equal(t, "io error", events[1].Reason)
}

func TestConcurrentAccumulation(t *testing.T) {
	const workers = 8
	const perWorker = 200
	agg := NewAggregator(workers * perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				agg.Deleted("/x/f", graph.File, 1)
			}
		}()
	}
	wg.Wait()
	agg.Close()

	rep := agg.Snapshot(workers*perWorker, 0)
	assert.Equal(t, int64(workers*perWorker), rep.FilesDeleted)
	assert.Equal(t, int64(workers*perWorker), rep.BytesFreed)
}

func TestCloseIsIdempotent(t *testing.T) {
	agg := NewAggregator(1)
	agg.Close()
	agg.Close() // must not panic

	_, open := <-agg.Events()
	assert.False(t, open)
}
