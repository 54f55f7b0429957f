package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crudload/internal/client"
	"crudload/internal/metrics"
	"crudload/internal/report"
	"crudload/internal/runner"
	"crudload/internal/storage"
	"crudload/internal/tui"
)

type Options struct {
	Config runner.Config

	In  io.Reader
	Out io.Writer

	// TUI swaps the per-attempt indicator for the live dashboard.
	TUI bool

	MetricsFile string
	HistoryPath string

	// ReportPrefix, when set, writes <prefix>.json and <prefix>.csv.
	ReportPrefix string

	Log logrus.FieldLogger
}

// Start runs one scenario end to end and prints its summary. Declined and
// empty runs return a summary and a nil error.
func Start(ctx context.Context, opts Options) (runner.RunSummary, error) {
	cfg := opts.Config
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	printHeader(opts.Out, cfg)

	api := client.New(cfg.BaseURL, cfg.Timeout)
	updates := make(runner.StatsUpdateChan, 100)
	r := runner.NewRunner(cfg, api, updates)
	r.Log = log
	r.Gate = &runner.Gate{
		Asker: runner.LineAsker{In: opts.In, Out: opts.Out},
		Out:   opts.Out,
	}

	rec := metrics.NewRecorder()
	rec.SetWorkers(cfg.Concurrency)
	r.Observers = append(r.Observers, rec)

	var collector *report.Collector
	if opts.ReportPrefix != "" {
		collector = report.NewCollector(cfg.TotalRequests())
		r.Observers = append(r.Observers, collector)
	}

	if cfg.Operation.NeedsPlan() {
		fmt.Fprintln(opts.Out, "🔍 Fetching existing users...")
	}
	plan, outcome, err := r.Prepare(ctx)
	if err != nil {
		PrintFailure(opts.Out, err)
		return runner.RunSummary{}, reportedError{err}
	}

	if plan == nil {
		printSkipped(opts.Out, cfg, outcome)
		return runner.RunSummary{Operation: cfg.Operation, Outcome: outcome}, nil
	}

	printPlan(opts.Out, plan)

	var summary runner.RunSummary
	if opts.TUI {
		summary, err = tui.Run(ctx, r, plan)
	} else {
		r.Observers = append(r.Observers, NewProgress(opts.Out))
		summary, err = r.Execute(ctx, plan)
	}
	if err != nil {
		return summary, err
	}

	summary.RunID = uuid.New().String()
	PrintSummary(opts.Out, summary)

	if opts.MetricsFile != "" {
		if err := rec.WriteTextfile(opts.MetricsFile); err != nil {
			log.WithError(err).Warn("could not write metrics file")
		} else {
			fmt.Fprintf(opts.Out, "📈 Metrics written to %s\n", opts.MetricsFile)
		}
	}

	if collector != nil {
		jsonPath, csvPath, err := report.Write(opts.ReportPrefix, summary, collector.Records())
		if err != nil {
			log.WithError(err).Warn("could not write report")
		} else {
			fmt.Fprintf(opts.Out, "💾 Report written to %s and %s\n", jsonPath, csvPath)
		}
	}

	if opts.HistoryPath != "" {
		saveHistory(opts.HistoryPath, cfg, summary, log)
	}

	return summary, nil
}

// Progress prints one mark per attempt, as it completes.
type Progress struct {
	mu  sync.Mutex
	out io.Writer
}

func NewProgress(out io.Writer) *Progress {
	return &Progress{out: out}
}

func (p *Progress) OnAttempt(a runner.Attempt) {
	mark := "✅"
	if !a.Success() {
		mark = "❌"
	}
	p.mu.Lock()
	fmt.Fprint(p.out, mark)
	p.mu.Unlock()
}

func printHeader(out io.Writer, cfg runner.Config) {
	fmt.Fprintf(out, "\n🚀 STARTING %s STRESS TEST - %s\n", strings.ToUpper(string(cfg.Operation)), endpoint(cfg.Operation))
	fmt.Fprintf(out, "======================================================================\n")
	fmt.Fprintf(out, "Target URL : %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "Workers    : %d\n", cfg.Concurrency)
	fmt.Fprintf(out, "Requests   : %d per worker = %d total\n", cfg.RequestsPerWorker, cfg.TotalRequests())
	if cfg.Timeout > 0 {
		fmt.Fprintf(out, "Timeout    : %s\n", cfg.Timeout)
	}
	fmt.Fprintf(out, "======================================================================\n\n")
}

func printPlan(out io.Writer, plan *runner.Plan) {
	cfg := plan.Config
	if cfg.Operation.NeedsPlan() {
		fmt.Fprintf(out, "✅ Found %d users, %d selected\n", plan.Available, len(plan.Items))
		if plan.Short() {
			fmt.Fprintf(out, "⚠️  Only %d users available but %d requests configured; the rest will count as errors\n",
				len(plan.Items), cfg.TotalRequests())
			fmt.Fprintln(out, "💡 Run the create scenario first to add more users")
		}
	}
	if cfg.Operation == runner.OpRead {
		fmt.Fprintln(out, "📥 A read succeeds only on a 2xx reply whose body is a JSON list of users")
	}
	fmt.Fprintf(out, "👥 Simulating %d concurrent workers\n", cfg.Concurrency)
	fmt.Fprintf(out, "📤 %d %s requests per worker\n\n", cfg.RequestsPerWorker, cfg.Operation.Method())
}

func printSkipped(out io.Writer, cfg runner.Config, outcome runner.Outcome) {
	switch outcome {
	case runner.OutcomeDeclined:
		fmt.Fprintln(out, "❌ Operation cancelled by the operator. No requests were sent.")
	case runner.OutcomeNothingToDo:
		fmt.Fprintf(out, "❌ No users to %s. Run the create scenario first.\n", cfg.Operation)
	}
}

// reportedError wraps an error the operator has already seen.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// Reported reports whether err was already printed to the operator.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// PrintFailure reports a fatal error with a manual recovery hint when one exists.
func PrintFailure(out io.Writer, err error) {
	fmt.Fprintf(out, "❌ %v\n", err)
	var pe *runner.PlanningError
	if errors.As(err, &pe) && pe.Hint != "" {
		fmt.Fprintf(out, "💡 %s\n", pe.Hint)
	}
}

func PrintSummary(out io.Writer, s runner.RunSummary) {
	rps := "n/a"
	if s.ThroughputKnown() {
		rps = fmt.Sprintf("%.1f req/sec", s.RequestsPerSecond)
	}

	fmt.Fprintf(out, "\n\n📊 RESULTS\n")
	fmt.Fprintf(out, "======================================================================\n")
	fmt.Fprintf(out, "Workers        : %d\n", s.Workers)
	fmt.Fprintf(out, "Requests       : %d\n", s.Attempted)
	fmt.Fprintf(out, "Success        : %d (%.1f%%)\n", s.TotalSuccess, s.SuccessRatePercent)
	fmt.Fprintf(out, "Errors         : %d\n", s.TotalErrors)
	if s.Exhausted > 0 {
		fmt.Fprintf(out, "  no user left : %d\n", s.Exhausted)
	}
	fmt.Fprintf(out, "Throughput     : %s\n", rps)
	fmt.Fprintf(out, "Duration       : %.3fs\n", s.ElapsedSeconds)
	fmt.Fprintf(out, "\n⏱️  RESPONSE TIMES (ms)\n")
	fmt.Fprintf(out, "   Mean: %.2f\n", s.MeanMs)
	fmt.Fprintf(out, "   P50 : %.2f\n", s.P50Ms)
	fmt.Fprintf(out, "   P90 : %.2f\n", s.P90Ms)
	fmt.Fprintf(out, "   P99 : %.2f\n", s.P99Ms)
	fmt.Fprintf(out, "   Max : %.2f\n", s.MaxMs)
	if s.Operation == runner.OpDelete {
		fmt.Fprintf(out, "\n🗑️  Users deleted successfully: %d\n", s.TotalSuccess)
	}
	fmt.Fprintf(out, "======================================================================\n")
}

func saveHistory(path string, cfg runner.Config, s runner.RunSummary, log logrus.FieldLogger) {
	store, err := storage.Open(path)
	if err != nil {
		log.WithError(err).Warn("history disabled for this run")
		return
	}
	defer store.Close()

	item := storage.HistoryItem{
		ID:        s.RunID,
		Timestamp: time.Now(),
		Config:    cfg,
		Summary:   s,
	}
	if err := store.Save(item); err != nil {
		log.WithError(err).Warn("could not save run history")
	}
}

func endpoint(op runner.Operation) string {
	if op.NeedsPlan() {
		return op.Method() + " /api/users/:id"
	}
	return op.Method() + " /api/users"
}
