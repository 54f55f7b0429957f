package runner

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OpCreate, OpRead, OpUpdate, OpDelete:
		return op, nil
	}
	return "", fmt.Errorf("unknown operation %q (want create, read, update or delete)", s)
}

// NeedsPlan reports whether the operation works on pre-existing users.
func (o Operation) NeedsPlan() bool {
	return o == OpUpdate || o == OpDelete
}

func (o Operation) Method() string {
	switch o {
	case OpCreate:
		return http.MethodPost
	case OpUpdate:
		return http.MethodPut
	case OpDelete:
		return http.MethodDelete
	default:
		return http.MethodGet
	}
}

// Defaults returns the worker count and per-worker request count each
// scenario runs with when nothing is configured.
func (o Operation) Defaults() (workers, requests int) {
	switch o {
	case OpRead:
		return 10, 20
	case OpUpdate:
		return 5, 8
	case OpDelete:
		// Deletes are irreversible, keep the blast radius small.
		return 3, 5
	default:
		return 5, 10
	}
}

// Config is fixed for the lifetime of a run.
type Config struct {
	Operation         Operation     `json:"operation"`
	BaseURL           string        `json:"base_url"`
	Concurrency       int           `json:"concurrency"`
	RequestsPerWorker int           `json:"requests_per_worker"`
	Timeout           time.Duration `json:"timeout"`

	// Optional text/template overrides for generated payloads.
	NameTemplate  string `json:"name_template,omitempty"`
	EmailTemplate string `json:"email_template,omitempty"`
}

func (c Config) TotalRequests() int {
	return c.Concurrency * c.RequestsPerWorker
}

func (c Config) Validate() error {
	if _, err := ParseOperation(string(c.Operation)); err != nil {
		return err
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0")
	}
	if c.RequestsPerWorker <= 0 {
		return fmt.Errorf("requests per worker must be greater than 0")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

// WorkItem references one existing user, used at most once per run.
type WorkItem struct {
	ID    int
	Name  string
	Email string
}

// WorkerResult is owned by a single worker until it returns.
type WorkerResult struct {
	Worker  int
	Success int
	Errors  int

	// Exhausted is the part of Errors that never reached the network.
	Exhausted int
}

func (r WorkerResult) Attempted() int {
	return r.Success + r.Errors
}

// Attempt describes one finished attempt, for observers.
type Attempt struct {
	Operation Operation
	Worker    int
	Seq       int
	ItemID    int
	Status    int
	Latency   time.Duration
	Err       error
}

func (a Attempt) Success() bool {
	return a.Err == nil
}

// Observer receives every attempt as it completes. Implementations must be
// safe for concurrent use.
type Observer interface {
	OnAttempt(a Attempt)
}

type ObserverFunc func(a Attempt)

func (f ObserverFunc) OnAttempt(a Attempt) { f(a) }

type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeDeclined    Outcome = "declined"
	OutcomeNothingToDo Outcome = "nothing-to-do"
)
