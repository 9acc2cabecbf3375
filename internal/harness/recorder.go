package harness

import (
	"sync"
	"time"

	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/runlog"
)

// EvidenceCapturer captures a screenshot-style artifact for a step and
// returns its path. The browser package provides the real implementation.
type EvidenceCapturer interface {
	Capture(name string) (string, error)
}

// Recorder converts step outcomes into StepResult entries and owns the
// accumulated list for the run.
type Recorder struct {
	log      *runlog.Logger
	evidence EvidenceCapturer

	mu      sync.Mutex
	results []models.StepResult
}

// NewRecorder creates a recorder. evidence may be nil, in which case no
// capture is attempted.
func NewRecorder(log *runlog.Logger, evidence EvidenceCapturer) *Recorder {
	return &Recorder{log: log, evidence: evidence}
}

// Record appends one StepResult for a completed step. On success with
// captureEvidence set, a confirmation screenshot is attempted; a capture
// failure is logged but does not change the step outcome. On failure a
// diagnostic screenshot is attempted best-effort and its error discarded.
func (r *Recorder) Record(name string, success bool, details string, captureEvidence bool) {
	r.record(name, success, details, captureEvidence, 0)
}

// RecordTimed is Record with an explicit duration attached to the result
func (r *Recorder) RecordTimed(name string, success bool, details string, captureEvidence bool, elapsed time.Duration) {
	r.record(name, success, details, captureEvidence, elapsed)
}

func (r *Recorder) record(name string, success bool, details string, captureEvidence bool, elapsed time.Duration) {
	result := models.StepResult{
		Name:      name,
		Success:   success,
		Details:   details,
		Timestamp: time.Now(),
		TotalMs:   elapsed.Milliseconds(),
	}

	if success {
		result.Status = models.StepStatusSuccess
		if captureEvidence && r.evidence != nil {
			path, err := r.evidence.Capture(name)
			if err != nil {
				r.log.Warn("Evidence capture failed", map[string]string{
					"step":  name,
					"error": err.Error(),
				})
			} else {
				result.Evidence = path
			}
		}
	} else {
		result.Status = models.StepStatusFailed
		if r.evidence != nil {
			// Diagnostic capture on an already-failed step; errors discarded
			if path, err := r.evidence.Capture("failure_" + name); err == nil {
				result.Evidence = path
			}
		}
	}

	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()

	level := models.LevelInfo
	if !success {
		level = models.LevelError
	}
	r.log.Record(level, "Step recorded", map[string]string{
		"step":    name,
		"status":  string(result.Status),
		"details": details,
	})
}

// Results returns a copy of all recorded results in insertion order.
// Repeated calls without an intervening Record return equal sequences.
func (r *Recorder) Results() []models.StepResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.StepResult, len(r.results))
	copy(out, r.results)
	return out
}

// SuccessCount returns how many recorded steps succeeded
func (r *Recorder) SuccessCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, result := range r.results {
		if result.Success {
			count++
		}
	}
	return count
}

// SuccessRatio returns successes over total steps, 0 when nothing recorded
func (r *Recorder) SuccessRatio() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.results) == 0 {
		return 0
	}
	count := 0
	for _, result := range r.results {
		if result.Success {
			count++
		}
	}
	return float64(count) / float64(len(r.results))
}
