package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rmfast/internal/config"
	"rmfast/internal/engine"
	"rmfast/internal/exitcodes"
	"rmfast/internal/history"
	"rmfast/internal/logging"
	"rmfast/internal/metrics"
	"rmfast/internal/report"
	"rmfast/internal/safety"
)

func main() {
	os.Exit(run())
}

func run() int {
	threads := flag.Int("t", 0, "Worker threads (default: detected core count)")
	flag.IntVar(threads, "threads", 0, "Worker threads (default: detected core count)")
	dryRun := flag.Bool("n", false, "Scan and report without deleting anything")
	flag.BoolVar(dryRun, "dry-run", false, "Scan and report without deleting anything")
	yes := flag.Bool("y", false, "Skip the confirmation prompt")
	flag.BoolVar(yes, "yes", false, "Skip the confirmation prompt")
	quiet := flag.Bool("q", false, "Suppress progress output")
	flag.BoolVar(quiet, "quiet", false, "Suppress progress output")
	configPath := flag.String("config", "", "Path to configuration file")
	journalPath := flag.String("journal", "", "Record deletions to this SQLite journal")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	roots := flag.Args()
	if len(roots) == 0 {
		fmt.Fprintln(os.Stderr, "usage: rmfast [flags] path...")
		flag.PrintDefaults()
		return exitcodes.InvalidUsage
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rmfast: %v\n", err)
			return exitcodes.InvalidUsage
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *journalPath != "" {
		cfg.JournalPath = *journalPath
	}

	logging.Setup(cfg.LogLevel, *quiet)
	log := logging.Component("cli")

	jobCfg := engine.Config{
		Threads:   cfg.Threads,
		DryRun:    *dryRun,
		Protected: cfg.Protected,
		Retry:     cfg.RetryPolicy(),
	}
	if *threads > 0 {
		jobCfg.Threads = *threads
	}

	if !*yes && !*dryRun {
		if !confirm(roots) {
			fmt.Fprintln(os.Stderr, "aborted")
			return exitcodes.Success
		}
	}

	metrics.Init()
	if cfg.Metrics.Port > 0 {
		srv := metrics.StartServer(cfg.MetricsAddress(), logging.Component("metrics"))
		defer srv.Close()
	}

	var journal *history.Journal
	if cfg.JournalPath != "" {
		j, err := history.Open(cfg.JournalPath)
		if err != nil {
			log.Error().Err(err).Msg("cannot open journal, continuing without")
		} else {
			journal = j
			defer journal.Close()
		}
	}

	eng := engine.New(logging.Component("engine"))
	job, err := eng.Submit(context.Background(), roots, jobCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rmfast: refusing to delete: %v\n", err)
		if isSafetyError(err) {
			return exitcodes.SafetyViolation
		}
		return exitcodes.InvalidUsage
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("cancelling")
		job.Cancel()
	}()

	drainEvents(job, journal, *dryRun, *quiet)

	rep := job.Wait()
	metrics.ObserveJob(rep)
	printSummary(rep, *dryRun)

	if rep.Failed() {
		return exitcodes.PartialFailure
	}
	return exitcodes.Success
}

// drainEvents renders progress and feeds the journal from the live stream.
func drainEvents(job *engine.Job, journal *history.Journal, dryRun, quiet bool) {
	jlog := logging.Component("journal")
	var done int64
	for ev := range job.Events() {
		done++
		if journal != nil {
			if err := journal.RecordEvent(ev, dryRun); err != nil {
				jlog.Error().Err(err).Msg("record failed")
			}
		}
		if !quiet && done%256 == 0 {
			fmt.Printf("\r%d entries processed", done)
		}
	}
	if !quiet && done > 0 {
		fmt.Printf("\r%d entries processed\n", done)
	}
}

func printSummary(rep report.Report, dryRun bool) {
	verb := "deleted"
	if dryRun {
		verb = "would delete"
	}
	fmt.Printf("%s %d files, %d directories (%s) in %s\n",
		verb, rep.FilesDeleted, rep.DirsDeleted, formatBytes(rep.BytesFreed), rep.Elapsed.Round(time.Millisecond))

	for _, f := range rep.Failures {
		fmt.Fprintf(os.Stderr, "failed: %s: %s\n", f.Path, f.Reason)
	}
	if rep.Failed() {
		fmt.Fprintf(os.Stderr, "%d entries could not be deleted\n", len(rep.Failures))
	}
}

func confirm(roots []string) bool {
	fmt.Fprintf(os.Stderr, "About to permanently delete:\n")
	for _, r := range roots {
		fmt.Fprintf(os.Stderr, "  %s\n", r)
	}
	fmt.Fprintf(os.Stderr, "Continue? [y/N] ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func isSafetyError(err error) bool {
	for _, sentinel := range []error{
		safety.ErrFilesystemRoot,
		safety.ErrHomeDirectory,
		safety.ErrProtectedPath,
		safety.ErrCurrentDirectory,
		safety.ErrSymlinkEscape,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
