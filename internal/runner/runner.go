package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"crudload/internal/stats"
)

// StatsUpdateChan carries live snapshots to a UI.
type StatsUpdateChan chan stats.Snapshot

type Runner struct {
	Cfg       Config
	API       API
	Stats     *stats.Stats
	Gate      *Gate
	Observers []Observer
	Log       logrus.FieldLogger

	// Event Channel
	Updates StatsUpdateChan
}

func NewRunner(cfg Config, api API, updates StatsUpdateChan) *Runner {
	if updates == nil {
		// Avoid nil panics if not provided
		updates = make(StatsUpdateChan, 10)
	}

	return &Runner{
		Cfg:     cfg,
		API:     api,
		Stats:   stats.NewStats(),
		Updates: updates,
		Log:     logrus.StandardLogger(),
	}
}

// StartTickLoop pushes stats snapshots until ctx is done.
func (r *Runner) StartTickLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendUpdate()
			}
		}
	}()
}

func (r *Runner) sendUpdate() {
	// Non-blocking send
	select {
	case r.Updates <- r.Stats.Snapshot():
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}

// Prepare validates the config, plans the work and, for deletes, waits for
// the operator. A nil plan with a nil error means the run must not start;
// the returned outcome says why.
func (r *Runner) Prepare(ctx context.Context) (*Plan, Outcome, error) {
	if err := r.Cfg.Validate(); err != nil {
		return nil, "", err
	}

	plan, err := NewPlanner(r.API, r.Log).Plan(ctx, r.Cfg)
	if err != nil {
		return nil, "", err
	}

	if !r.Cfg.Operation.NeedsPlan() {
		return plan, OutcomeCompleted, nil
	}

	if len(plan.Items) == 0 {
		r.Log.WithField("operation", r.Cfg.Operation).Warn("no users found, nothing to do")
		return nil, OutcomeNothingToDo, nil
	}

	if r.Cfg.Operation == OpDelete {
		if r.Gate == nil {
			return nil, "", errors.New("delete runs require a confirmation gate")
		}
		if !r.Gate.Confirm(plan.Items) {
			r.Log.Info("deletion declined by operator")
			return nil, OutcomeDeclined, nil
		}
	}

	return plan, OutcomeCompleted, nil
}

// Execute launches one goroutine per worker, waits for all of them and
// aggregates their results.
func (r *Runner) Execute(ctx context.Context, plan *Plan) (RunSummary, error) {
	cfg := plan.Config

	var payloads *PayloadGenerator
	if cfg.Operation == OpCreate || cfg.Operation == OpUpdate {
		var err error
		payloads, err = NewPayloadGenerator(cfg.Operation, cfg.NameTemplate, cfg.EmailTemplate)
		if err != nil {
			return RunSummary{}, err
		}
	}

	var queue *WorkQueue
	if cfg.Operation.NeedsPlan() {
		queue = NewWorkQueue(plan.Items)
	}

	r.Stats.Reset()
	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()
	r.StartTickLoop(tickCtx, 200*time.Millisecond)

	r.Log.WithFields(logrus.Fields{
		"operation": cfg.Operation,
		"workers":   cfg.Concurrency,
		"requests":  cfg.RequestsPerWorker,
	}).Debug("launching workers")

	results := make([]WorkerResult, cfg.Concurrency)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < cfg.Concurrency; i++ {
		w := &Worker{
			ID:        i + 1,
			Requests:  cfg.RequestsPerWorker,
			Op:        cfg.Operation,
			API:       r.API,
			Queue:     queue,
			Payloads:  payloads,
			Stats:     r.Stats,
			Observers: r.Observers,
			Log:       r.Log,
		}

		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = w.Run(ctx)
		}(i)
	}
	wg.Wait()
	end := time.Now()

	s := Summarize(results, start, end)
	s.Operation = cfg.Operation
	s.RequestsPerWorker = cfg.RequestsPerWorker
	s.Planned = len(plan.Items)
	s.MeanMs = r.Stats.MeanMs()
	s.P50Ms = r.Stats.QuantileMs(50)
	s.P90Ms = r.Stats.QuantileMs(90)
	s.P99Ms = r.Stats.QuantileMs(99)
	s.MaxMs = r.Stats.MaxMs()

	r.sendUpdate()
	return s, nil
}

// Run prepares and executes in one go.
func (r *Runner) Run(ctx context.Context) (RunSummary, error) {
	plan, outcome, err := r.Prepare(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	if plan == nil {
		return RunSummary{
			Operation:         r.Cfg.Operation,
			Outcome:           outcome,
			Workers:           r.Cfg.Concurrency,
			RequestsPerWorker: r.Cfg.RequestsPerWorker,
		}, nil
	}
	return r.Execute(ctx, plan)
}
