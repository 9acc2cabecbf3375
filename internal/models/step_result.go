package models

import "time"

// StepStatus is the recorded outcome of a single test step.
type StepStatus string

const (
	StepStatusSuccess StepStatus = "success"
	StepStatusFailed  StepStatus = "failed"
)

// StepResult stores the outcome of one discrete unit of the test pipeline.
// Results are immutable once recorded; the ordered sequence of all results
// for a run is the unit the final report is built from.
type StepResult struct {
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	Success   bool       `json:"success"`
	Details   string     `json:"details,omitempty"`
	Evidence  string     `json:"evidence,omitempty"` // screenshot path, empty when capture failed or was skipped
	Timestamp time.Time  `json:"timestamp"`
	TotalMs   int64      `json:"total_ms,omitempty"`
}
