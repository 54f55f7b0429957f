package runner

import (
	"math"
	"time"
)

// RateUnavailable is reported as RequestsPerSecond when the run finished
// too fast to measure.
const RateUnavailable = -1.0

// RunSummary is computed once, after every worker has returned.
type RunSummary struct {
	RunID             string        `json:"run_id,omitempty"`
	Operation         Operation     `json:"operation"`
	Outcome           Outcome       `json:"outcome"`
	Workers           int           `json:"workers"`
	RequestsPerWorker int           `json:"requests_per_worker"`
	Planned           int           `json:"planned_items,omitempty"`

	Attempted    int `json:"attempted"`
	TotalSuccess int `json:"total_success"`
	TotalErrors  int `json:"total_errors"`
	Exhausted    int `json:"exhausted"`

	Started            time.Time     `json:"started"`
	Elapsed            time.Duration `json:"elapsed"`
	ElapsedSeconds     float64       `json:"elapsed_seconds"`
	RequestsPerSecond  float64       `json:"requests_per_second"`
	SuccessRatePercent float64       `json:"success_rate_percent"`

	// Filled from live stats, network attempts only.
	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P90Ms  float64 `json:"p90_ms"`
	P99Ms  float64 `json:"p99_ms"`
	MaxMs  float64 `json:"max_ms"`
}

// ThroughputKnown reports whether RequestsPerSecond holds a real value.
func (s RunSummary) ThroughputKnown() bool {
	return s.RequestsPerSecond != RateUnavailable
}

// Summarize folds worker results measured between start and end.
func Summarize(results []WorkerResult, start, end time.Time) RunSummary {
	s := RunSummary{
		Outcome: OutcomeCompleted,
		Workers: len(results),
		Started: start,
	}

	for _, r := range results {
		s.TotalSuccess += r.Success
		s.TotalErrors += r.Errors
		s.Exhausted += r.Exhausted
	}
	s.Attempted = s.TotalSuccess + s.TotalErrors

	s.Elapsed = end.Sub(start)
	if s.Elapsed < 0 {
		s.Elapsed = 0
	}
	s.ElapsedSeconds = s.Elapsed.Seconds()

	// Reported with millisecond precision; below that the rate is noise.
	if s.Elapsed < time.Millisecond {
		s.RequestsPerSecond = RateUnavailable
	} else {
		s.RequestsPerSecond = float64(s.Attempted) / s.ElapsedSeconds
	}

	if s.Attempted > 0 {
		s.SuccessRatePercent = math.Min(100, 100*float64(s.TotalSuccess)/float64(s.Attempted))
	}

	return s
}
