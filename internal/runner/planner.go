package runner

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"crudload/internal/client"
)

// UserLister is the one read the planner needs from the API.
type UserLister interface {
	List(ctx context.Context) ([]client.User, error)
}

// Plan is the work a run will perform. Items is empty for create and read.
type Plan struct {
	Config    Config
	Items     []WorkItem
	Available int
}

// Short reports whether fewer items were found than requests configured.
func (p *Plan) Short() bool {
	return p.Config.Operation.NeedsPlan() && len(p.Items) < p.Config.TotalRequests()
}

type Planner struct {
	Users UserLister
	Log   logrus.FieldLogger
}

func NewPlanner(users UserLister, log logrus.FieldLogger) *Planner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Planner{Users: users, Log: log}
}

// Plan fetches the current users once for update and delete runs and picks
// the ones the run will touch: the first N for update, the last N for delete.
func (p *Planner) Plan(ctx context.Context, cfg Config) (*Plan, error) {
	plan := &Plan{Config: cfg}
	if !cfg.Operation.NeedsPlan() {
		return plan, nil
	}

	users, err := p.Users.List(ctx)
	if err != nil {
		return nil, &PlanningError{
			Op:   cfg.Operation,
			Err:  fmt.Errorf("fetch users: %w", err),
			Hint: "make sure the backend is running at " + cfg.BaseURL + " and has users",
		}
	}

	items := dedupe(users)
	plan.Available = len(items)

	need := cfg.TotalRequests()
	if len(items) < need {
		p.Log.WithFields(logrus.Fields{
			"operation": cfg.Operation,
			"available": len(items),
			"needed":    need,
		}).Warn("fewer users than requests; run the create scenario first to add more")
	}

	switch cfg.Operation {
	case OpDelete:
		// The tail is least likely to collide with rows still being created at the low end.
		if len(items) > need {
			items = items[len(items)-need:]
		}
	case OpUpdate:
		if len(items) > need {
			items = items[:need]
		}
	}

	plan.Items = items
	p.Log.WithFields(logrus.Fields{
		"operation": cfg.Operation,
		"available": plan.Available,
		"selected":  len(plan.Items),
	}).Debug("planned work items")

	return plan, nil
}

// dedupe keeps the first occurrence of each id and preserves order.
func dedupe(users []client.User) []WorkItem {
	seen := make(map[int]struct{}, len(users))
	items := make([]WorkItem, 0, len(users))
	for _, u := range users {
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		items = append(items, WorkItem{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return items
}
