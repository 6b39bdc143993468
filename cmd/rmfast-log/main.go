package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"rmfast/internal/exitcodes"
	"rmfast/internal/history"
)

func main() {
	dbPath := flag.String("db", "", "Path to the deletion journal")
	recent := flag.Int("recent", 0, "Show N most recent entries")
	pathPattern := flag.String("path", "", "Filter by path pattern (SQL LIKE syntax)")
	stats := flag.Bool("stats", false, "Show journal statistics")
	days := flag.Int("days", 30, "Number of days for statistics")
	jsonOutput := flag.Bool("json", false, "Output in JSON format")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: rmfast-log -db <journal> [-recent N | -path PATTERN | -stats]")
		flag.PrintDefaults()
		os.Exit(exitcodes.InvalidUsage)
	}

	j, err := history.Open(*dbPath)
	if err != nil {
		log.Fatalf("ERROR: failed to open journal %s: %v", *dbPath, err)
	}
	defer func() {
		if err := j.Close(); err != nil {
			log.Printf("ERROR: failed to close journal: %v", err)
		}
	}()

	switch {
	case *stats:
		showStats(j, *days, *jsonOutput)
	case *recent > 0:
		records, err := j.Recent(*recent)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		showRecords(records, *jsonOutput)
	case *pathPattern != "":
		records, err := j.ByPath(*pathPattern, 100)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		showRecords(records, *jsonOutput)
	default:
		flag.Usage()
		fmt.Println("\nExamples:")
		fmt.Println("  rmfast-log -db rm.db -recent 10        # 10 most recent entries")
		fmt.Println("  rmfast-log -db rm.db -stats            # journal statistics")
		fmt.Println("  rmfast-log -db rm.db -path '/tmp/%'    # entries under /tmp")
		os.Exit(exitcodes.InvalidUsage)
	}
}

func showStats(j *history.Journal, days int, jsonOutput bool) {
	stats, err := j.GetStats(days)
	if err != nil {
		log.Fatalf("ERROR: failed to get statistics: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Journal statistics (last %d days, since %s)\n", days, stats.Since.Format("2006-01-02"))
	fmt.Printf("  Deleted entries: %d\n", stats.Deleted)
	fmt.Printf("  Failed entries:  %d\n", stats.Failed)
	fmt.Printf("  Bytes freed:     %d\n", stats.BytesFreed)
}

func showRecords(records []history.Record, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(data))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tACTION\tKIND\tSIZE\tPATH\tREASON")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Action, r.Kind, r.Size, r.Path, r.Reason)
	}
	w.Flush()
}
