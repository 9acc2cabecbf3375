package harness

import (
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/runlog"
)

// Timer measures wall-clock duration of operations and polices them
// against per-category thresholds. Samples accumulate for the run report.
type Timer struct {
	log *runlog.Logger

	mu      sync.Mutex
	samples []models.PerformanceSample
}

// NewTimer creates a timer writing classification events to log
func NewTimer(log *runlog.Logger) *Timer {
	return &Timer{log: log}
}

// Measure runs fn and records exactly one PerformanceSample, whether fn
// succeeds or fails. The sample capture sits in a defer so a panic inside
// fn still leaves the duration in the ledger. Any error from fn is
// returned unchanged.
func (t *Timer) Measure(category, operation string, thresholds common.ThresholdSpec, fn func() error) (err error) {
	start := time.Now()

	defer func() {
		elapsed := time.Since(start)
		sample := models.PerformanceSample{
			Operation: operation,
			Category:  category,
			StartedAt: start,
			TotalMs:   elapsed.Milliseconds(),
			Success:   err == nil,
			Status:    classify(elapsed, thresholds),
		}
		if err != nil {
			sample.Error = err.Error()
		}

		t.mu.Lock()
		t.samples = append(t.samples, sample)
		t.mu.Unlock()

		switch sample.Status {
		case models.PerfStatusFail:
			t.log.Warn(fmt.Sprintf("%s exceeded hard threshold", operation), map[string]string{
				"category": category,
				"duration": elapsed.String(),
				"limit":    thresholds.Hard.String(),
				"overage":  (elapsed - thresholds.Hard).String(),
			})
		case models.PerfStatusWarn:
			t.log.Warn(fmt.Sprintf("%s exceeded warning threshold", operation), map[string]string{
				"category": category,
				"duration": elapsed.String(),
				"limit":    thresholds.Warn.String(),
			})
		default:
			t.log.Debug(fmt.Sprintf("%s completed", operation), map[string]string{
				"category": category,
				"duration": elapsed.String(),
			})
		}
	}()

	err = fn()
	return err
}

// Samples returns a copy of all samples recorded so far, in completion order
func (t *Timer) Samples() []models.PerformanceSample {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.PerformanceSample, len(t.samples))
	copy(out, t.samples)
	return out
}

// classify compares a duration against a hard/warn threshold pair.
// A zero threshold means unchecked.
func classify(elapsed time.Duration, thresholds common.ThresholdSpec) models.PerfStatus {
	if thresholds.Hard > 0 && elapsed > thresholds.Hard {
		return models.PerfStatusFail
	}
	if thresholds.Warn > 0 && elapsed > thresholds.Warn {
		return models.PerfStatusWarn
	}
	return models.PerfStatusPass
}
