package models

import "time"

// RunSummary is the finalized record of one complete harness run.
// It is created once at orchestrator start, finalized at orchestrator end,
// and is the sole object serialized into persisted reports.
type RunSummary struct {
	RunID       string              `json:"run_id"`
	TargetURL   string              `json:"target_url"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt time.Time           `json:"completed_at"`
	Steps       []StepResult        `json:"steps"`
	Samples     []PerformanceSample `json:"samples"`
	Threshold   float64             `json:"threshold"`
	Passed      bool                `json:"passed"`
}

// SuccessCount returns the number of successful steps.
func (s *RunSummary) SuccessCount() int {
	n := 0
	for _, step := range s.Steps {
		if step.Success {
			n++
		}
	}
	return n
}

// SuccessRatio returns successful steps over total steps, 0 when no steps ran.
func (s *RunSummary) SuccessRatio() float64 {
	if len(s.Steps) == 0 {
		return 0
	}
	return float64(s.SuccessCount()) / float64(len(s.Steps))
}

// DurationSeconds returns the wall-clock duration of the run in seconds.
func (s *RunSummary) DurationSeconds() float64 {
	return s.CompletedAt.Sub(s.StartedAt).Seconds()
}
