package stats

import (
	"sync/atomic"
	"time"
)

// Stats holds live counters for a run. It is observational: the final
// summary is built from per-worker results, not from these counters.
type Stats struct {
	Requests  uint64
	Success   uint64
	Fail      uint64
	Exhausted uint64
	Inflight  int64

	// Latency of attempts that reached the network (microseconds)
	Latency *SafeHistogram
}

// Snapshot is a cheap copy of Stats for the UI.
type Snapshot struct {
	Requests  uint64
	Success   uint64
	Fail      uint64
	Exhausted uint64
	Inflight  int64

	// ErrorRate is Fail over Requests, in percent.
	ErrorRate float64

	MeanMs float64
	P50Ms  float64
	P90Ms  float64
	P99Ms  float64
	MaxMs  float64
}

func NewStats() *Stats {
	return &Stats{Latency: NewSafeHistogram()}
}

// AddRequest records an attempt that went over the wire.
func (s *Stats) AddRequest(success bool, latency time.Duration) {
	atomic.AddUint64(&s.Requests, 1)
	if success {
		atomic.AddUint64(&s.Success, 1)
	} else {
		atomic.AddUint64(&s.Fail, 1)
	}
	s.Latency.Record(latency)
}

// AddExhausted records an attempt that found the work queue empty.
func (s *Stats) AddExhausted() {
	atomic.AddUint64(&s.Requests, 1)
	atomic.AddUint64(&s.Fail, 1)
	atomic.AddUint64(&s.Exhausted, 1)
}

func (s *Stats) Begin() { atomic.AddInt64(&s.Inflight, 1) }
func (s *Stats) End()   { atomic.AddInt64(&s.Inflight, -1) }

func (s *Stats) Reset() {
	atomic.StoreUint64(&s.Requests, 0)
	atomic.StoreUint64(&s.Success, 0)
	atomic.StoreUint64(&s.Fail, 0)
	atomic.StoreUint64(&s.Exhausted, 0)
	atomic.StoreInt64(&s.Inflight, 0)
	s.Latency.Reset()
}

func (s *Stats) ErrorRate() float64 {
	reqs := atomic.LoadUint64(&s.Requests)
	if reqs == 0 {
		return 0
	}
	fails := atomic.LoadUint64(&s.Fail)
	return (float64(fails) / float64(reqs)) * 100
}

// QuantileMs returns the latency at quantile q (0-100) in milliseconds.
func (s *Stats) QuantileMs(q float64) float64 {
	if s.Latency.TotalCount() == 0 {
		return 0
	}
	return float64(s.Latency.ValueAtQuantile(q)) / 1000.0
}

func (s *Stats) MeanMs() float64 {
	if s.Latency.TotalCount() == 0 {
		return 0
	}
	return s.Latency.Mean() / 1000.0
}

func (s *Stats) MaxMs() float64 {
	if s.Latency.TotalCount() == 0 {
		return 0
	}
	return float64(s.Latency.Max()) / 1000.0
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Requests:  atomic.LoadUint64(&s.Requests),
		Success:   atomic.LoadUint64(&s.Success),
		Fail:      atomic.LoadUint64(&s.Fail),
		Exhausted: atomic.LoadUint64(&s.Exhausted),
		Inflight:  atomic.LoadInt64(&s.Inflight),
		ErrorRate: s.ErrorRate(),
		MeanMs:    s.MeanMs(),
		P50Ms:     s.QuantileMs(50),
		P90Ms:     s.QuantileMs(90),
		P99Ms:     s.QuantileMs(99),
		MaxMs:     s.MaxMs(),
	}
}
