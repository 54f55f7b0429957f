package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"crudload/internal/runner"
)

const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeExhausted = "exhausted"
)

// Recorder exposes run attempts as Prometheus metrics on its own registry.
type Recorder struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	workers  prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crudload_requests_total",
			Help: "Attempts made against the users API, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crudload_request_duration_seconds",
			Help:    "Latency of attempts that reached the users API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crudload_workers",
			Help: "Workers configured for the current run.",
		}),
	}
	r.Registry.MustRegister(r.requests, r.duration, r.workers)
	return r
}

func (r *Recorder) SetWorkers(n int) {
	r.workers.Set(float64(n))
}

// OnAttempt implements runner.Observer.
func (r *Recorder) OnAttempt(a runner.Attempt) {
	op := string(a.Operation)
	switch {
	case a.Err == nil:
		r.requests.WithLabelValues(op, OutcomeSuccess).Inc()
	case errors.Is(a.Err, runner.ErrQueueExhausted):
		r.requests.WithLabelValues(op, OutcomeExhausted).Inc()
		return
	default:
		r.requests.WithLabelValues(op, OutcomeError).Inc()
	}
	r.duration.WithLabelValues(op).Observe(a.Latency.Seconds())
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}
