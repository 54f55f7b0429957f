package runner

import "sync/atomic"

// WorkQueue hands out planned items to workers, each exactly once.
type WorkQueue struct {
	items  []WorkItem
	cursor atomic.Int64
}

func NewWorkQueue(items []WorkItem) *WorkQueue {
	return &WorkQueue{items: items}
}

// ClaimNext returns the next unclaimed item, or false once all are taken.
func (q *WorkQueue) ClaimNext() (WorkItem, bool) {
	i := q.cursor.Add(1) - 1
	if i >= int64(len(q.items)) {
		return WorkItem{}, false
	}
	return q.items[i], true
}

func (q *WorkQueue) Len() int {
	return len(q.items)
}

func (q *WorkQueue) Remaining() int {
	n := int64(len(q.items)) - q.cursor.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}
