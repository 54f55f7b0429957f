package runner

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"crudload/internal/client"
	"crudload/internal/stats"
)

// API is the part of the users API a worker calls.
type API interface {
	List(ctx context.Context) ([]client.User, error)
	Create(ctx context.Context, in client.UserInput) (int, error)
	Update(ctx context.Context, id int, in client.UserInput) (int, error)
	Delete(ctx context.Context, id int) (int, error)
}

// Worker is one simulated client. Its attempts are strictly sequential.
type Worker struct {
	ID       int
	Requests int
	Op       Operation

	API       API
	Queue     *WorkQueue // update and delete only
	Payloads  *PayloadGenerator
	Stats     *stats.Stats
	Observers []Observer
	Log       logrus.FieldLogger
}

// Run performs every attempt and returns the worker's private tally.
func (w *Worker) Run(ctx context.Context) WorkerResult {
	res := WorkerResult{Worker: w.ID}

	for i := 1; i <= w.Requests; i++ {
		a := w.attempt(ctx, i)

		switch {
		case a.Err == nil:
			res.Success++
		case errors.Is(a.Err, ErrQueueExhausted):
			res.Errors++
			res.Exhausted++
		default:
			res.Errors++
		}

		for _, o := range w.Observers {
			o.OnAttempt(a)
		}
	}

	return res
}

func (w *Worker) attempt(ctx context.Context, seq int) Attempt {
	a := Attempt{Operation: w.Op, Worker: w.ID, Seq: seq}

	var item WorkItem
	if w.Op.NeedsPlan() {
		var ok bool
		item, ok = w.Queue.ClaimNext()
		if !ok {
			a.Err = ErrQueueExhausted
			w.Stats.AddExhausted()
			w.Log.WithFields(logrus.Fields{"worker": w.ID, "request": seq}).Warn(ErrQueueExhausted.Error())
			return a
		}
		a.ItemID = item.ID
	}

	path := "/api/users"
	if w.Op.NeedsPlan() {
		path = client.UserPath(item.ID)
	}

	w.Stats.Begin()
	start := time.Now()
	status, err := w.send(ctx, seq, item)
	a.Latency = time.Since(start)
	w.Stats.End()

	a.Status = status
	if err != nil {
		a.Err = &RequestError{
			Worker:  w.ID,
			Attempt: seq,
			Method:  w.Op.Method(),
			Path:    path,
			Err:     err,
		}
		w.Log.WithFields(logrus.Fields{
			"worker":  w.ID,
			"request": seq,
			"status":  status,
		}).WithError(err).Debug("request failed")
	}

	w.Stats.AddRequest(a.Err == nil, a.Latency)
	return a
}

func (w *Worker) send(ctx context.Context, seq int, item WorkItem) (int, error) {
	switch w.Op {
	case OpCreate:
		in, err := w.Payloads.Next(w.ID, seq)
		if err != nil {
			return 0, err
		}
		return w.API.Create(ctx, in)

	case OpUpdate:
		in, err := w.Payloads.Next(w.ID, seq)
		if err != nil {
			return 0, err
		}
		return w.API.Update(ctx, item.ID, in)

	case OpDelete:
		return w.API.Delete(ctx, item.ID)

	default:
		if _, err := w.API.List(ctx); err != nil {
			var se *client.StatusError
			if errors.As(err, &se) {
				return se.Code, err
			}
			return 0, err
		}
		return http.StatusOK, nil
	}
}
