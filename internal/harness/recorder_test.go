package harness

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/probo/internal/models"
)

type fakeCapturer struct {
	calls []string
	path  string
	err   error
}

func (f *fakeCapturer) Capture(name string) (string, error) {
	f.calls = append(f.calls, name)
	return f.path, f.err
}

func TestRecord_SuccessWithEvidence(t *testing.T) {
	capturer := &fakeCapturer{path: "screenshots/01_title_check.png"}
	recorder := NewRecorder(newRunLogger(t), capturer)

	recorder.Record("title check", true, "title matched", true)

	results := recorder.Results()
	require.Len(t, results, 1)
	assert.Equal(t, models.StepStatusSuccess, results[0].Status)
	assert.True(t, results[0].Success)
	assert.Equal(t, "screenshots/01_title_check.png", results[0].Evidence)
	assert.Equal(t, []string{"title check"}, capturer.calls)
}

func TestRecord_SuccessCaptureDisabled(t *testing.T) {
	capturer := &fakeCapturer{path: "unused.png"}
	recorder := NewRecorder(newRunLogger(t), capturer)

	recorder.Record("quiet step", true, "", false)

	assert.Empty(t, capturer.calls)
	assert.Empty(t, recorder.Results()[0].Evidence)
}

func TestRecord_CaptureFailureKeepsSuccess(t *testing.T) {
	capturer := &fakeCapturer{err: errors.New("display gone")}
	log := newRunLogger(t)
	recorder := NewRecorder(log, capturer)

	recorder.Record("title check", true, "", true)

	results := recorder.Results()
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Empty(t, results[0].Evidence)
	assert.GreaterOrEqual(t, log.CountLevel(models.LevelWarn), 1)
}

func TestRecord_FailureDiagnosticCapture(t *testing.T) {
	capturer := &fakeCapturer{path: "screenshots/02_failure_sensor_scan.png"}
	recorder := NewRecorder(newRunLogger(t), capturer)

	recorder.Record("sensor scan", false, "0 of 9 parameters found", true)

	results := recorder.Results()
	require.Len(t, results, 1)
	assert.Equal(t, models.StepStatusFailed, results[0].Status)
	assert.Equal(t, "screenshots/02_failure_sensor_scan.png", results[0].Evidence)
	assert.Equal(t, []string{"failure_sensor scan"}, capturer.calls)
}

func TestRecord_FailureCaptureErrorDiscarded(t *testing.T) {
	capturer := &fakeCapturer{err: errors.New("display gone")}
	recorder := NewRecorder(newRunLogger(t), capturer)

	recorder.Record("sensor scan", false, "nothing found", true)

	results := recorder.Results()
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Empty(t, results[0].Evidence)
}

func TestRecord_NilCapturer(t *testing.T) {
	recorder := NewRecorder(newRunLogger(t), nil)

	recorder.Record("ok", true, "", true)
	recorder.Record("bad", false, "", true)

	require.Len(t, recorder.Results(), 2)
}

func TestResults_OrderAndIdempotence(t *testing.T) {
	recorder := NewRecorder(newRunLogger(t), nil)

	recorder.Record("first", true, "", false)
	recorder.Record("second", false, "", false)
	recorder.Record("third", true, "", false)

	first := recorder.Results()
	second := recorder.Results()
	assert.Equal(t, first, second)

	require.Len(t, first, 3)
	assert.Equal(t, "first", first[0].Name)
	assert.Equal(t, "second", first[1].Name)
	assert.Equal(t, "third", first[2].Name)
}

func TestRecordTimed(t *testing.T) {
	recorder := NewRecorder(newRunLogger(t), nil)

	recorder.RecordTimed("page load", true, "loaded", false, 1500*time.Millisecond)

	results := recorder.Results()
	require.Len(t, results, 1)
	assert.Equal(t, int64(1500), results[0].TotalMs)
}

func TestSuccessRatio(t *testing.T) {
	recorder := NewRecorder(newRunLogger(t), nil)
	assert.Equal(t, 0.0, recorder.SuccessRatio())

	recorder.Record("a", true, "", false)
	recorder.Record("b", true, "", false)
	recorder.Record("c", true, "", false)
	recorder.Record("d", false, "", false)
	recorder.Record("e", false, "", false)

	assert.Equal(t, 3, recorder.SuccessCount())
	assert.InDelta(t, 0.6, recorder.SuccessRatio(), 1e-9)
}
