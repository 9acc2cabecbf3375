// Package browser drives the Chrome instance behind the harness. The
// Driver interface keeps the orchestrator and validation suites testable
// without a real browser.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/harness"
)

// Driver is the narrow browser surface the validation suites consume.
// The harness is single-threaded; actions are not cancellable mid-flight,
// only bounded by the configured action timeout.
type Driver interface {
	Open(url string) error
	Title() (string, error)
	WaitVisible(selector string, timeout time.Duration) error
	Exists(selector string) (bool, error)
	Count(selector string) (int, error)
	Click(selector string) error
	Type(selector, text string) error
	Evaluate(expression string, result any) error
	Source() (string, error)
	Screenshot() ([]byte, error)
	Close() error
}

// ChromeDriver implements Driver on a dedicated headless Chrome instance
type ChromeDriver struct {
	config common.BrowserConfig
	logger arbor.ILogger

	ctx             context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
}

// NewChromeDriver creates an unstarted driver
func NewChromeDriver(config common.BrowserConfig, logger arbor.ILogger) *ChromeDriver {
	return &ChromeDriver{config: config, logger: logger}
}

// Start launches Chrome and verifies it responds. Startup failures are
// marked transient so the retry policy treats launch races as retryable.
func (d *ChromeDriver) Start() error {
	startTime := time.Now()

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.config.Headless),
		chromedp.Flag("disable-gpu", d.config.DisableGPU),
		chromedp.Flag("no-sandbox", d.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(d.config.WindowWidth, d.config.WindowHeight),
		chromedp.UserAgent(d.config.UserAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	testCtx, testCancel := context.WithTimeout(browserCtx, d.config.StartupTimeout)
	defer testCancel()

	// Startup test: a fresh instance occasionally races its first command
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return harness.Transient(fmt.Errorf("browser failed startup test: %w", err))
	}

	var title string
	if err := chromedp.Run(testCtx, chromedp.Title(&title)); err != nil {
		browserCancel()
		allocatorCancel()
		return harness.Transient(fmt.Errorf("browser failed responsiveness test: %w", err))
	}

	d.ctx = browserCtx
	d.browserCancel = browserCancel
	d.allocatorCancel = allocatorCancel

	d.logger.Debug().
		Dur("startup_time", time.Since(startTime)).
		Bool("headless", d.config.Headless).
		Msg("Browser started and tested successfully")

	return nil
}

func (d *ChromeDriver) run(timeout time.Duration, actions ...chromedp.Action) error {
	if d.ctx == nil {
		return fmt.Errorf("browser not started")
	}
	ctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Open navigates to url and waits for the document body
func (d *ChromeDriver) Open(url string) error {
	err := d.run(d.config.ActionTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return harness.Transient(fmt.Errorf("failed to open %s: %w", url, err))
	}
	return nil
}

// Title returns the current document title
func (d *ChromeDriver) Title() (string, error) {
	var title string
	if err := d.run(d.config.ActionTimeout, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

// WaitVisible blocks until selector is visible or timeout elapses.
// Timeouts are transient: the element may appear on a retried attempt.
func (d *ChromeDriver) WaitVisible(selector string, timeout time.Duration) error {
	if err := d.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return harness.Transient(fmt.Errorf("element %q not visible: %w", selector, err))
	}
	return nil
}

// Exists reports whether at least one element matches selector
func (d *ChromeDriver) Exists(selector string) (bool, error) {
	count, err := d.Count(selector)
	return count > 0, err
}

// Count returns how many elements match selector
func (d *ChromeDriver) Count(selector string) (int, error) {
	var count int
	expression := fmt.Sprintf("document.querySelectorAll(%q).length", selector)
	if err := d.run(d.config.ActionTimeout, chromedp.Evaluate(expression, &count)); err != nil {
		return 0, fmt.Errorf("failed to count %q: %w", selector, err)
	}
	return count, nil
}

// Click clicks the first visible element matching selector
func (d *ChromeDriver) Click(selector string) error {
	if err := d.run(d.config.ActionTimeout, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return harness.Transient(fmt.Errorf("failed to click %q: %w", selector, err))
	}
	return nil
}

// Type clears the element matching selector and types text into it
func (d *ChromeDriver) Type(selector, text string) error {
	err := d.run(d.config.ActionTimeout,
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return harness.Transient(fmt.Errorf("failed to type into %q: %w", selector, err))
	}
	return nil
}

// Evaluate runs a JavaScript expression and unmarshals the result
func (d *ChromeDriver) Evaluate(expression string, result any) error {
	if err := d.run(d.config.ActionTimeout, chromedp.Evaluate(expression, result)); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

// Source returns the serialized HTML of the current page
func (d *ChromeDriver) Source() (string, error) {
	var html string
	if err := d.run(d.config.ActionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return html, nil
}

// Screenshot captures the visible viewport as PNG bytes
func (d *ChromeDriver) Screenshot() ([]byte, error) {
	var buf []byte
	if err := d.run(d.config.ActionTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Close releases the browser and its allocator. Safe to call on an
// unstarted or already-closed driver.
func (d *ChromeDriver) Close() error {
	if d.browserCancel != nil {
		d.browserCancel()
		d.browserCancel = nil
	}
	if d.allocatorCancel != nil {
		d.allocatorCancel()
		d.allocatorCancel = nil
	}
	d.ctx = nil
	return nil
}
