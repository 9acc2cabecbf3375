package models

import "time"

// PerfStatus classifies a measured duration against its threshold policy.
type PerfStatus string

const (
	PerfStatusPass PerfStatus = "pass"
	PerfStatusWarn PerfStatus = "warn"
	PerfStatusFail PerfStatus = "fail"
)

// PerformanceSample stores timing data for one invocation of a measured
// operation. Exactly one sample is recorded per invocation, whether the
// operation succeeded or not.
type PerformanceSample struct {
	Operation string     `json:"operation"`
	Category  string     `json:"category"`
	StartedAt time.Time  `json:"started_at"`
	TotalMs   int64      `json:"total_ms"`
	Success   bool       `json:"success"`
	Status    PerfStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// Duration returns the measured duration.
func (s PerformanceSample) Duration() time.Duration {
	return time.Duration(s.TotalMs) * time.Millisecond
}

// Seconds returns the measured duration in seconds.
func (s PerformanceSample) Seconds() float64 {
	return float64(s.TotalMs) / 1000.0
}

// PerformanceStats holds aggregated timing statistics for one operation
// category, for the report's performance summary.
type PerformanceStats struct {
	Category    string  `json:"category"`
	Count       int     `json:"count"`
	AvgMs       int64   `json:"avg_ms"`
	MaxMs       int64   `json:"max_ms"`
	Violations  int     `json:"violations"` // samples classified warn or fail
	SuccessRate float64 `json:"success_rate"`
}

// AggregateSamples folds samples into per-category statistics, preserving
// first-seen category order.
func AggregateSamples(samples []PerformanceSample) []PerformanceStats {
	order := make([]string, 0)
	byCategory := make(map[string]*PerformanceStats)
	okCounts := make(map[string]int)

	for _, s := range samples {
		stats, exists := byCategory[s.Category]
		if !exists {
			stats = &PerformanceStats{Category: s.Category}
			byCategory[s.Category] = stats
			order = append(order, s.Category)
		}
		stats.Count++
		stats.AvgMs += s.TotalMs
		if s.TotalMs > stats.MaxMs {
			stats.MaxMs = s.TotalMs
		}
		if s.Status != PerfStatusPass {
			stats.Violations++
		}
		if s.Success {
			okCounts[s.Category]++
		}
	}

	result := make([]PerformanceStats, 0, len(order))
	for _, category := range order {
		stats := byCategory[category]
		if stats.Count > 0 {
			stats.AvgMs /= int64(stats.Count)
			stats.SuccessRate = float64(okCounts[category]) / float64(stats.Count)
		}
		result = append(result, *stats)
	}
	return result
}
