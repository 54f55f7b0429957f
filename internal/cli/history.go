package cli

import (
	"fmt"
	"io"

	"crudload/internal/storage"
)

// PrintHistory lists the newest runs from the store at path.
func PrintHistory(out io.Writer, path string, limit int) error {
	store, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	items, err := store.List(limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintf(out, "No runs recorded in %s\n", path)
		return nil
	}

	fmt.Fprintf(out, "%-20s  %-8s  %7s  %7s  %7s  %8s  %10s  %s\n",
		"TIME", "OP", "WORKERS", "REQS", "OK %", "REQ/S", "DURATION", "ID")
	for _, it := range items {
		s := it.Summary
		rps := "n/a"
		if s.ThroughputKnown() {
			rps = fmt.Sprintf("%.1f", s.RequestsPerSecond)
		}
		fmt.Fprintf(out, "%-20s  %-8s  %7d  %7d  %7.1f  %8s  %9.3fs  %s\n",
			it.Timestamp.Format("2006-01-02 15:04:05"),
			s.Operation, s.Workers, s.Attempted, s.SuccessRatePercent, rps, s.ElapsedSeconds, it.ID)
	}
	return nil
}

// ShowRun prints the stored summary of one run.
func ShowRun(out io.Writer, path, id string) error {
	store, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	item, err := store.Get(id)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}

	cfg := item.Config
	fmt.Fprintf(out, "🗂️  Run %s recorded %s\n", item.ID, item.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Target URL : %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "Scenario   : %s, %d workers x %d requests\n", cfg.Operation, cfg.Concurrency, cfg.RequestsPerWorker)
	PrintSummary(out, item.Summary)
	return nil
}
