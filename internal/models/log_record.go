package models

import "time"

// LogLevel is the severity of a log record.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogRecord is a single structured log entry for one test run.
// Records are immutable once created and kept in creation order.
//
// Timestamp carries full nanosecond precision for sorting; the display
// format is applied by the writers, not stored here.
type LogRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     LogLevel          `json:"level"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}
