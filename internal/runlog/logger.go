// Package runlog provides the per-run structured logger. Every event is
// mirrored three ways: a human-readable line through arbor (console and
// text file), a JSONL entry in the run directory, and an in-memory record
// sequence that the report embeds at the end of the run.
package runlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/models"
)

// Logger is the process-wide sink for one test run. Safe for concurrent
// use, although the harness itself runs single-threaded.
type Logger struct {
	arbor arbor.ILogger

	mu      sync.Mutex
	records []models.LogRecord
	jsonl   *os.File
	encoder *json.Encoder
}

// New creates a run logger writing its structured stream to
// <runDir>/logs/run.jsonl. A failure to open the structured sink degrades
// to console-only output; it never fails the run.
func New(log arbor.ILogger, runDir string) *Logger {
	l := &Logger{arbor: log}

	logsDir := filepath.Join(runDir, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		log.Warn().Err(err).Msg("Structured log directory unavailable, console only")
		return l
	}

	file, err := os.OpenFile(filepath.Join(logsDir, "run.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Warn().Err(err).Msg("Structured log file unavailable, console only")
		return l
	}

	l.jsonl = file
	l.encoder = json.NewEncoder(file)
	return l
}

// Record appends a LogRecord and mirrors it to the console and the
// structured stream. Never returns an error: a persistence failure is
// reported on the console and the run continues.
func (l *Logger) Record(level models.LogLevel, message string, fields map[string]string) {
	record := models.LogRecord{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    cloneFields(fields),
	}

	l.mu.Lock()
	l.records = append(l.records, record)
	if l.encoder != nil {
		if err := l.encoder.Encode(record); err != nil {
			l.encoder = nil // stop trying after the first write failure
			l.arbor.Warn().Err(err).Msg("Structured log write failed, console only from here")
		}
	}
	l.mu.Unlock()

	event := l.event(level)
	for key, value := range record.Fields {
		event = event.Str(key, value)
	}
	event.Msg(message)
}

func (l *Logger) event(level models.LogLevel) arbor.ILogEvent {
	switch level {
	case models.LevelDebug:
		return l.arbor.Debug()
	case models.LevelWarn:
		return l.arbor.Warn()
	case models.LevelError:
		return l.arbor.Error()
	default:
		return l.arbor.Info()
	}
}

// Debug records a debug-level entry
func (l *Logger) Debug(message string, fields map[string]string) {
	l.Record(models.LevelDebug, message, fields)
}

// Info records an info-level entry
func (l *Logger) Info(message string, fields map[string]string) {
	l.Record(models.LevelInfo, message, fields)
}

// Warn records a warn-level entry
func (l *Logger) Warn(message string, fields map[string]string) {
	l.Record(models.LevelWarn, message, fields)
}

// Error records an error-level entry
func (l *Logger) Error(message string, fields map[string]string) {
	l.Record(models.LevelError, message, fields)
}

// Records returns a copy of all records accumulated so far, in creation
// order. Repeated calls without intervening Record calls return equal
// sequences.
func (l *Logger) Records() []models.LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.LogRecord, len(l.records))
	copy(out, l.records)
	return out
}

// CountLevel returns how many records exist at the given level
func (l *Logger) CountLevel(level models.LogLevel) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, record := range l.records {
		if record.Level == level {
			count++
		}
	}
	return count
}

// Close flushes and closes the structured stream
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.jsonl != nil {
		if err := l.jsonl.Close(); err != nil {
			l.arbor.Warn().Err(err).Msg("Failed to close structured log")
		}
		l.jsonl = nil
		l.encoder = nil
	}
}

func cloneFields(fields map[string]string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for key, value := range fields {
		out[key] = value
	}
	return out
}
