// Package harness provides the cross-cutting pipeline wrapped around every
// test step: retry with backoff, wall-clock measurement against thresholds,
// and structured step-result recording.
package harness

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/runlog"
)

// BackoffLinear scales the delay with the attempt number; BackoffFixed
// keeps it constant. Backoff deliberately stays linear rather than
// exponential: the target site recovers fast and the run is interactive.
const (
	BackoffLinear = "linear"
	BackoffFixed  = "fixed"
)

// RetryPolicy defines retry behavior for one class of operation
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Backoff     string
	IsRetryable func(error) bool
}

// NewRetryPolicy builds a policy from configuration with the default
// retryable-error classification.
func NewRetryPolicy(spec common.RetrySpec) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: spec.MaxAttempts,
		BaseDelay:   spec.BaseDelay,
		Backoff:     spec.Backoff,
		IsRetryable: IsRetryableError,
	}
}

// ExhaustedRetriesError reports that every attempt of an operation failed
// with a retryable error. It carries the last failure as its cause.
type ExhaustedRetriesError struct {
	Operation string
	Attempts  int
	Cause     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Operation, e.Attempts, e.Cause)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Cause
}

// Delay returns the pause before the next attempt. attempt is 1-based.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	if p.Backoff == BackoffFixed {
		return p.BaseDelay
	}
	return p.BaseDelay * time.Duration(attempt)
}

// Execute runs fn up to MaxAttempts times. A retryable failure waits out
// the backoff and tries again; a non-retryable failure propagates
// immediately without consuming the remaining budget. When the budget runs
// out the last failure is wrapped in ExhaustedRetriesError.
func (p *RetryPolicy) Execute(ctx context.Context, log *runlog.Logger, operation string, fn func() error) error {
	classify := p.IsRetryable
	if classify == nil {
		classify = IsRetryableError
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				log.Info(fmt.Sprintf("%s succeeded on attempt %d", operation, attempt), map[string]string{
					"operation": operation,
					"attempt":   strconv.Itoa(attempt),
				})
			}
			return nil
		}

		if !classify(lastErr) {
			return lastErr
		}

		if attempt < p.MaxAttempts {
			delay := p.Delay(attempt)
			log.Warn(fmt.Sprintf("%s failed on attempt %d, retrying", operation, attempt), map[string]string{
				"operation": operation,
				"attempt":   strconv.Itoa(attempt),
				"delay":     delay.String(),
				"error":     lastErr.Error(),
			})

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	log.Error(fmt.Sprintf("%s exhausted all %d attempts", operation, p.MaxAttempts), map[string]string{
		"operation": operation,
		"attempts":  strconv.Itoa(p.MaxAttempts),
		"error":     lastErr.Error(),
	})

	return &ExhaustedRetriesError{Operation: operation, Attempts: p.MaxAttempts, Cause: lastErr}
}

// IsRetryableError classifies transient failures: context deadlines,
// network timeouts, and browser-side races marked retryable by the driver.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var transient *TransientError
	return errors.As(err, &transient)
}

// TransientError marks a failure as retryable regardless of its cause.
// The browser driver wraps startup races and element-wait timeouts in it.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return e.Cause.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// Transient wraps err as retryable. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Cause: err}
}
