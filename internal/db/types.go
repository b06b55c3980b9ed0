package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial" // finished with per-row failures
	RunStatusFailed    = "failed"
)

// Run is one pass over a form export
type Run struct {
	ID            uuid.UUID  `json:"id"`
	Source        string     `json:"source"`
	Status        string     `json:"status"`
	RowsRead      int        `json:"rows_read"`
	RowsProcessed int        `json:"rows_processed"`
	RowsFailed    int        `json:"rows_failed"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// RunCounts are the row totals recorded when a run completes
type RunCounts struct {
	Read      int
	Processed int
	Failed    int
}

// Status derives the final run status from the counts
func (c RunCounts) Status() string {
	switch {
	case c.Failed == 0:
		return RunStatusCompleted
	case c.Processed > 0:
		return RunStatusPartial
	default:
		return RunStatusFailed
	}
}

// StoredDocument is an evaluation document saved for a run
type StoredDocument struct {
	ID          uuid.UUID       `json:"id"`
	RunID       uuid.UUID       `json:"run_id"`
	RowNumber   int             `json:"row_number"`
	Subject     string          `json:"subject"`
	Title       string          `json:"title"`
	Content     json.RawMessage `json:"content"`
	Markdown    string          `json:"markdown"`
	DeliveredTo []string        `json:"delivered_to,omitempty"`
	DeliveredAt *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
