package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/models"
)

func TestMeasure_SuccessWithinThresholds(t *testing.T) {
	timer := NewTimer(newRunLogger(t))
	thresholds := common.ThresholdSpec{Hard: 10 * time.Second, Warn: 5 * time.Second}

	err := timer.Measure("page_load", "open dashboard", thresholds, func() error {
		return nil
	})
	require.NoError(t, err)

	samples := timer.Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, "open dashboard", samples[0].Operation)
	assert.Equal(t, "page_load", samples[0].Category)
	assert.True(t, samples[0].Success)
	assert.Equal(t, models.PerfStatusPass, samples[0].Status)
	assert.Empty(t, samples[0].Error)
}

func TestMeasure_ErrorStillRecordsSample(t *testing.T) {
	timer := NewTimer(newRunLogger(t))
	cause := errors.New("spinner never cleared")

	err := timer.Measure("page_load", "open dashboard", common.ThresholdSpec{}, func() error {
		return cause
	})
	assert.ErrorIs(t, err, cause, "measurement must not alter the error")

	samples := timer.Samples()
	require.Len(t, samples, 1)
	assert.False(t, samples[0].Success)
	assert.Equal(t, cause.Error(), samples[0].Error)
}

func TestMeasure_WarnClassification(t *testing.T) {
	timer := NewTimer(newRunLogger(t))
	thresholds := common.ThresholdSpec{Hard: 10 * time.Second, Warn: 10 * time.Millisecond}

	err := timer.Measure("sensor_suite", "scan sensors", thresholds, func() error {
		time.Sleep(30 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	samples := timer.Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, models.PerfStatusWarn, samples[0].Status)
	assert.True(t, samples[0].Success)
	assert.GreaterOrEqual(t, samples[0].TotalMs, int64(30))
}

func TestMeasure_FailClassification(t *testing.T) {
	timer := NewTimer(newRunLogger(t))
	thresholds := common.ThresholdSpec{Hard: 5 * time.Millisecond, Warn: time.Millisecond}

	err := timer.Measure("sensor_suite", "scan sensors", thresholds, func() error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	samples := timer.Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, models.PerfStatusFail, samples[0].Status)
}

func TestMeasure_ZeroThresholdsUnchecked(t *testing.T) {
	timer := NewTimer(newRunLogger(t))

	err := timer.Measure("misc", "untimed", common.ThresholdSpec{}, func() error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.PerfStatusPass, timer.Samples()[0].Status)
}

func TestMeasure_OneSamplePerRetryAttempt(t *testing.T) {
	log := newRunLogger(t)
	timer := NewTimer(log)
	policy := &RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, IsRetryable: alwaysRetryable}

	calls := 0
	err := policy.Execute(context.Background(), log, "navigate", func() error {
		return timer.Measure("navigation", "navigate", common.ThresholdSpec{}, func() error {
			calls++
			if calls < 3 {
				return errors.New("timeout")
			}
			return nil
		})
	})

	require.NoError(t, err)
	samples := timer.Samples()
	require.Len(t, samples, 3, "each retry attempt is an independent sample")
	assert.False(t, samples[0].Success)
	assert.False(t, samples[1].Success)
	assert.True(t, samples[2].Success)
}

func TestSamples_ReturnsCopy(t *testing.T) {
	timer := NewTimer(newRunLogger(t))
	require.NoError(t, timer.Measure("misc", "op", common.ThresholdSpec{}, func() error { return nil }))

	samples := timer.Samples()
	samples[0].Operation = "mutated"
	assert.Equal(t, "op", timer.Samples()[0].Operation)
}
