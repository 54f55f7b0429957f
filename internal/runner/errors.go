package runner

import (
	"errors"
	"fmt"
)

// ErrQueueExhausted marks an attempt that found no work item left.
var ErrQueueExhausted = errors.New("no more users available in the work queue")

// PlanningError aborts a run before any worker starts.
type PlanningError struct {
	Op   Operation
	Err  error
	Hint string
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning %s run: %v", e.Op, e.Err)
}

func (e *PlanningError) Unwrap() error {
	return e.Err
}

// RequestError is a failed attempt. It never leaves the worker that made it.
type RequestError struct {
	Worker  int
	Attempt int
	Method  string
	Path    string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("worker %d, request %d: %s %s: %v", e.Worker, e.Attempt, e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
