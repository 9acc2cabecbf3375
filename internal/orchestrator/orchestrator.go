// Package orchestrator sequences the test pipeline: driver init, dashboard
// load, then the independent validation suites. The first two are
// prerequisites and abort the run when they fail; suite failures are
// recorded and never fatal. The report is rendered on every exit path.
package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/probo/internal/browser"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/dashboard"
	"github.com/ternarybob/probo/internal/harness"
	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/report"
	"github.com/ternarybob/probo/internal/runlog"
)

// SuiteSpec names one validation suite and the thresholds it runs under
type SuiteSpec struct {
	Name       string
	Category   string
	Thresholds common.ThresholdSpec
	Run        func() (bool, error)
}

// Orchestrator owns the run: the single driver handle, the cross-cutting
// harness pieces, and the final verdict.
type Orchestrator struct {
	config   *common.Config
	log      *runlog.Logger
	timer    *harness.Timer
	recorder *harness.Recorder
	evidence *evidenceProxy
	renderer report.Renderer
	runDir   string

	newDriver func() (browser.Driver, error)

	// BuildSuites constructs the validation suites once the driver is
	// available. Replaceable for testing.
	BuildSuites func(driver browser.Driver) []SuiteSpec
}

// New creates an orchestrator. newDriver must return a started driver.
func New(config *common.Config, log *runlog.Logger, renderer report.Renderer, runDir string, newDriver func() (browser.Driver, error)) *Orchestrator {
	o := &Orchestrator{
		config:    config,
		log:       log,
		timer:     harness.NewTimer(log),
		recorder:  nil,
		evidence:  &evidenceProxy{},
		renderer:  renderer,
		runDir:    runDir,
		newDriver: newDriver,
	}
	o.recorder = harness.NewRecorder(log, o.evidence)
	o.BuildSuites = o.defaultSuites
	return o
}

// Run executes the full pipeline and returns the finished summary. Step
// failures never escape as errors; they are absorbed into the verdict.
func (o *Orchestrator) Run(ctx context.Context) *models.RunSummary {
	runID := common.NewRunID()
	startedAt := time.Now()

	o.log.Info("Starting dashboard test run", map[string]string{
		"run_id": runID,
		"target": o.config.Target.BaseURL,
	})

	var driver browser.Driver
	defer func() {
		if driver == nil {
			return
		}
		if err := driver.Close(); err != nil {
			o.log.Warn("Driver cleanup failed", map[string]string{"error": err.Error()})
		} else {
			o.log.Info("Browser closed", nil)
		}
	}()

	// Prerequisite 1: browser startup. Each retry attempt is its own
	// performance sample.
	driverPolicy := harness.NewRetryPolicy(o.config.Retry.Driver)
	err := driverPolicy.Execute(ctx, o.log, "driver init", func() error {
		return o.timer.Measure("driver_init", "driver init", o.config.Thresholds.DriverInit, func() error {
			d, err := o.newDriver()
			if err != nil {
				return err
			}
			driver = d
			return nil
		})
	})
	if err != nil {
		o.recorder.Record("Driver Initialization", false, err.Error(), false)
		return o.finish(runID, startedAt, false)
	}

	if o.config.Reports.Screenshots {
		o.evidence.set(browser.NewEvidenceStore(driver, o.runDir))
	}
	o.recorder.Record("Driver Initialization", true, "Chrome started and verified", true)

	// Prerequisite 2: the dashboard itself has to load
	var title string
	navPolicy := harness.NewRetryPolicy(o.config.Retry.Navigation)
	err = navPolicy.Execute(ctx, o.log, "dashboard load", func() error {
		return o.timer.Measure("page_load", "open dashboard", o.config.Thresholds.PageLoad, func() error {
			if err := driver.Open(o.config.Target.BaseURL); err != nil {
				return err
			}
			time.Sleep(o.config.Browser.SettleDelay)
			t, err := driver.Title()
			if err != nil {
				return err
			}
			title = t
			return nil
		})
	})
	if err != nil {
		o.recorder.Record("Dashboard Load", false, err.Error(), false)
		return o.finish(runID, startedAt, false)
	}
	o.recorder.Record("Dashboard Load", true, "Loaded "+o.config.Target.BaseURL, true)

	if expected := o.config.Target.PageTitle; expected != "" {
		if strings.Contains(title, expected) {
			o.recorder.Record("Title Check", true, fmt.Sprintf("Title %q matches %q", title, expected), false)
		} else {
			o.recorder.Record("Title Check", false, fmt.Sprintf("Title %q does not contain %q", title, expected), false)
		}
	}

	// Validation suites run unconditionally; a failure in one never
	// blocks the others.
	for _, suite := range o.BuildSuites(driver) {
		o.runSuite(suite)
	}

	passed := o.recorder.SuccessRatio() >= o.config.Verdict.SuccessThreshold
	return o.finish(runID, startedAt, passed)
}

func (o *Orchestrator) runSuite(spec SuiteSpec) {
	defer func() {
		if r := recover(); r != nil {
			o.recorder.Record(spec.Name, false, fmt.Sprintf("Unexpected failure: %v", r), false)
		}
	}()

	o.log.Info("Running "+spec.Name, map[string]string{"category": spec.Category})

	err := o.timer.Measure(spec.Category, spec.Name, spec.Thresholds, func() error {
		passed, err := spec.Run()
		if err != nil {
			return err
		}
		if !passed {
			// Granular failures were already recorded by the suite
			o.log.Warn(spec.Name+" did not reach its pass threshold", nil)
		}
		return nil
	})
	if err != nil {
		o.recorder.Record(spec.Name, false, "Error: "+err.Error(), false)
	}
}

// finish builds the summary, renders the report, and logs the final tally.
// Called on every exit path, verdict forced false on prerequisite aborts.
func (o *Orchestrator) finish(runID string, startedAt time.Time, passed bool) *models.RunSummary {
	summary := &models.RunSummary{
		RunID:       runID,
		TargetURL:   o.config.Target.BaseURL,
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Steps:       o.recorder.Results(),
		Samples:     o.timer.Samples(),
		Threshold:   o.config.Verdict.SuccessThreshold,
		Passed:      passed,
	}

	artifacts, err := o.renderer.Render(summary)
	if err != nil {
		o.log.Error("Report generation failed", map[string]string{"error": err.Error()})
	} else {
		o.log.Info("Reports written", map[string]string{
			"pdf":  artifacts.PDFPath,
			"json": artifacts.JSONPath,
		})
	}

	verdict := "FAILED"
	if summary.Passed {
		verdict = "PASSED"
	}
	o.log.Info("Test run complete", map[string]string{
		"run_id":  runID,
		"steps":   strconv.Itoa(len(summary.Steps)),
		"passed":  strconv.Itoa(summary.SuccessCount()),
		"ratio":   fmt.Sprintf("%.2f", summary.SuccessRatio()),
		"verdict": verdict,
	})

	return summary
}

func (o *Orchestrator) defaultSuites(driver browser.Driver) []SuiteSpec {
	return []SuiteSpec{
		{
			Name:       "Sensor Data Validation",
			Category:   "sensor_suite",
			Thresholds: o.config.Thresholds.SensorSuite,
			Run: func() (bool, error) {
				return dashboard.NewSensorSuite(driver, o.config, o.log, o.recorder).Run()
			},
		},
		{
			Name:       "Visual Elements",
			Category:   "visual_suite",
			Thresholds: o.config.Thresholds.VisualSuite,
			Run: func() (bool, error) {
				return dashboard.NewVisualSuite(driver, o.config, o.log, o.recorder).Run()
			},
		},
		{
			Name:       "Download Feature",
			Category:   "download_suite",
			Thresholds: o.config.Thresholds.DownloadSuite,
			Run: func() (bool, error) {
				return dashboard.NewDownloadSuite(driver, o.config, o.log, o.recorder).Run()
			},
		},
	}
}

// Recorder exposes the run's result recorder, mainly for suites built
// outside defaultSuites.
func (o *Orchestrator) Recorder() *harness.Recorder {
	return o.recorder
}
