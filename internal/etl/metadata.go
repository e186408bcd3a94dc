// Package etl implements the extract → transform → validate → load
// pipeline over SII enterprise registry tables.
package etl

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a pipeline run. A run starts running
// and ends in exactly one terminal state.
type Status string

const (
	StatusRunning               Status = "running"
	StatusCompleted             Status = "completed"
	StatusCompletedWithWarnings Status = "completed_with_warnings"
	StatusPartiallyCompleted    Status = "partially_completed"
	StatusFailed                Status = "failed"
)

// RunMetadata tracks one pipeline invocation. The pipeline owns the single
// instance and threads a pointer through every stage; stages append errors
// and counts but never replace it.
type RunMetadata struct {
	ProcessID        string     `json:"process_id"`
	Source           string     `json:"source,omitempty"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	Status           Status     `json:"status"`
	RecordsExtracted int        `json:"records_extracted"`
	RecordsProcessed int        `json:"records_processed"`
	RecordsFailed    int        `json:"records_failed"`
	Errors           []string   `json:"errors"`
}

// NewRunMetadata creates run metadata in the running state with a fresh
// process ID.
func NewRunMetadata() *RunMetadata {
	return &RunMetadata{
		ProcessID: uuid.New().String(),
		StartTime: time.Now().UTC(),
		Status:    StatusRunning,
		Errors:    []string{},
	}
}

// AppendError records an ordered error message.
func (m *RunMetadata) AppendError(msg string) {
	m.Errors = append(m.Errors, msg)
}

// Finish sets the terminal status and the end time.
func (m *RunMetadata) Finish(status Status) {
	now := time.Now().UTC()
	m.EndTime = &now
	m.Status = status
}

// Duration returns the elapsed run time, using now for unfinished runs.
func (m *RunMetadata) Duration() time.Duration {
	if m.EndTime != nil {
		return m.EndTime.Sub(m.StartTime)
	}
	return time.Since(m.StartTime)
}
