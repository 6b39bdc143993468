// Package metrics exposes Prometheus counters for deletion throughput and
// an optional /metrics endpoint for long-running or scripted use.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"rmfast/internal/report"
)

var (
	initOnce sync.Once

	FilesDeletedTotal prometheus.Counter
	DirsDeletedTotal  prometheus.Counter
	BytesFreedTotal   prometheus.Counter
	FailuresTotal     prometheus.Counter
	JobDuration       prometheus.Histogram
)

// Init registers all metrics. Safe to call multiple times.
func Init() {
	initOnce.Do(func() {
		FilesDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rmfast_files_deleted_total",
			Help: "Total files and symlinks deleted.",
		})
		DirsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rmfast_dirs_deleted_total",
			Help: "Total directories deleted.",
		})
		BytesFreedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rmfast_bytes_freed_total",
			Help: "Best-effort bytes freed, from scan-time sizes.",
		})
		FailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rmfast_failures_total",
			Help: "Entries that could not be deleted.",
		})
		JobDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rmfast_job_duration_seconds",
			Help:    "End-to-end job duration, scan included.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		})

		prometheus.MustRegister(
			FilesDeletedTotal,
			DirsDeletedTotal,
			BytesFreedTotal,
			FailuresTotal,
			JobDuration,
		)
	})
}

// ObserveJob folds a finished job's report into the counters.
func ObserveJob(rep report.Report) {
	FilesDeletedTotal.Add(float64(rep.FilesDeleted))
	DirsDeletedTotal.Add(float64(rep.DirsDeleted))
	BytesFreedTotal.Add(float64(rep.BytesFreed))
	FailuresTotal.Add(float64(len(rep.Failures)))
	JobDuration.Observe(rep.Elapsed.Seconds())
}

// StartServer serves /metrics on addr in the background and returns the
// server for shutdown.
func StartServer(addr string, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
	return srv
}
