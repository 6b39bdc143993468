// Package engine is the public surface of the deletion core: submit a job,
// receive a stream of terminal events and a final report. The CLI, progress
// rendering and the deletion journal all sit on top of this API and contain
// no deletion logic of their own.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rmfast/internal/fsops"
	"rmfast/internal/report"
	"rmfast/internal/safety"
	"rmfast/internal/scan"
	"rmfast/internal/sched"
)

// Config is the per-job configuration, fully resolved by the caller: any
// confirmation prompting has already happened by the time a job is
// submitted.
type Config struct {
	// Threads is the worker pool size. Zero selects the core count:
	// deletes are blocking syscalls and extra workers only add contention.
	Threads int
	// DryRun routes every delete through a recording backend: the report
	// has the same shape, the filesystem is untouched.
	DryRun bool
	// Protected extends the validator denylist.
	Protected []string
	// Retry bounds the backend's per-entry attempts.
	Retry fsops.RetryPolicy
}

// Engine validates, scans and schedules deletion jobs.
type Engine struct {
	plat fsops.Platform
	log  zerolog.Logger
}

// New creates an engine on the current platform's deletion primitive.
func New(log zerolog.Logger) *Engine {
	return &Engine{plat: fsops.NewPlatform(), log: log}
}

// Job is a handle to one running deletion.
type Job struct {
	ID uuid.UUID

	cancel context.CancelFunc

	// streamReady closes once the aggregator exists (after the scan, when
	// the event buffer can be sized to the forest).
	streamReady chan struct{}
	agg         *report.Aggregator

	done  chan struct{}
	final report.Report
}

// Events returns the live stream of terminal entries. The stream is finite,
// ends when the job reaches a terminal state, and is not restartable.
// Blocks until the scan has sized the stream.
func (j *Job) Events() <-chan report.Event {
	<-j.streamReady
	return j.agg.Events()
}

// Wait blocks until the job is terminal and returns the final Report.
// A cancelled job still yields a valid partial report.
func (j *Job) Wait() report.Report {
	<-j.done
	return j.final
}

// Cancel requests cooperative cancellation. In-flight deletes finish; no
// new entries are dispatched.
func (j *Job) Cancel() {
	j.cancel()
}

// Submit validates every root and, if all pass, starts the job. Validation
// failure aborts the whole job before any traversal: no partial side
// effects. The returned error wraps the safety package's sentinel errors.
func (e *Engine) Submit(ctx context.Context, roots []string, cfg Config) (*Job, error) {
	validator := safety.NewValidator(cfg.Protected)
	for _, root := range roots {
		if err := validator.Validate(root); err != nil {
			return nil, err
		}
	}

	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:          uuid.New(),
		cancel:      cancel,
		streamReady: make(chan struct{}),
		done:        make(chan struct{}),
	}

	go e.run(jobCtx, job, roots, cfg)
	return job, nil
}

func (e *Engine) run(ctx context.Context, job *Job, roots []string, cfg Config) {
	defer job.cancel()
	start := time.Now()

	scanner := scan.New(e.plat, e.log)
	g, scanErr := scanner.Scan(ctx, roots)
	e.log.Debug().
		Str("job", job.ID.String()).
		Int("entries", g.Len()).
		Dur("scan", time.Since(start)).
		Msg("scan complete")

	agg := report.NewAggregator(g.Len())
	job.agg = agg
	close(job.streamReady)

	if scanErr == nil {
		s := sched.New(e.backend(cfg), cfg.Threads, e.log)
		s.Run(ctx, g, agg)
	}

	agg.Close()
	job.final = agg.Snapshot(g.Len(), time.Since(start))
	close(job.done)
}

func (e *Engine) backend(cfg Config) fsops.Backend {
	if cfg.DryRun {
		return fsops.NewRecording()
	}
	return fsops.NewBackend(e.plat, cfg.Retry)
}
