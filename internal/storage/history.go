package storage

import (
	"fmt"
	"time"

	"crudload/internal/runner"
)

// HistoryItem is one finished run as persisted on disk.
type HistoryItem struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Config    runner.Config     `json:"config"`
	Summary   runner.RunSummary `json:"summary"`
}

// key sorts chronologically so a cursor walks runs in order.
func (h HistoryItem) key() []byte {
	return []byte(fmt.Sprintf("%020d-%s", h.Timestamp.UnixNano(), h.ID))
}
