package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the harness configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Target      TargetConfig     `toml:"target"`
	Browser     BrowserConfig    `toml:"browser"`
	Retry       RetryConfig      `toml:"retry"`
	Thresholds  ThresholdsConfig `toml:"thresholds"`
	Logging     LoggingConfig    `toml:"logging"`
	Reports     ReportsConfig    `toml:"reports"`
	Verdict     VerdictConfig    `toml:"verdict"`
}

// TargetConfig describes the dashboard under test
type TargetConfig struct {
	BaseURL          string   `toml:"base_url"`
	PageTitle        string   `toml:"page_title"`        // expected substring of the document title
	StationPaths     []string `toml:"station_paths"`     // station pages relative to base_url
	DownloadPassword string   `toml:"download_password"` // correct password for the export modal
	WrongPassword    string   `toml:"wrong_password"`    // deliberately wrong password for the negative path
}

// BrowserConfig controls the Chrome instance
type BrowserConfig struct {
	Headless       bool          `toml:"headless"`
	NoSandbox      bool          `toml:"no_sandbox"`
	DisableGPU     bool          `toml:"disable_gpu"`
	WindowWidth    int           `toml:"window_width"`
	WindowHeight   int           `toml:"window_height"`
	UserAgent      string        `toml:"user_agent"`
	StartupTimeout time.Duration `toml:"startup_timeout"` // browser launch + about:blank probe
	ActionTimeout  time.Duration `toml:"action_timeout"`  // per wait/click/evaluate
	SettleDelay    time.Duration `toml:"settle_delay"`    // fixed pause after navigation for client-side rendering
}

// RetrySpec configures one retry policy. Backoff is "linear" (delay scales
// with the attempt number) or "fixed".
type RetrySpec struct {
	MaxAttempts int           `toml:"max_attempts"`
	BaseDelay   time.Duration `toml:"base_delay"`
	Backoff     string        `toml:"backoff"`
}

// RetryConfig holds per-operation-class retry policies
type RetryConfig struct {
	Driver     RetrySpec `toml:"driver"`     // browser startup
	Navigation RetrySpec `toml:"navigation"` // page loads
	Element    RetrySpec `toml:"element"`    // element waits inside validation suites
}

// ThresholdSpec is a hard/warning duration pair for one operation category
type ThresholdSpec struct {
	Hard time.Duration `toml:"hard"`
	Warn time.Duration `toml:"warn"`
}

// ThresholdsConfig holds per-category performance thresholds
type ThresholdsConfig struct {
	DriverInit    ThresholdSpec `toml:"driver_init"`
	PageLoad      ThresholdSpec `toml:"page_load"`
	SensorSuite   ThresholdSpec `toml:"sensor_suite"`
	VisualSuite   ThresholdSpec `toml:"visual_suite"`
	DownloadSuite ThresholdSpec `toml:"download_suite"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // time format for log lines
}

// ReportsConfig controls run artifact output
type ReportsConfig struct {
	Dir         string `toml:"dir"`         // base directory; each run gets a timestamped subdirectory
	Screenshots bool   `toml:"screenshots"` // capture evidence screenshots
	PrettyJSON  bool   `toml:"pretty_json"` // indent the JSON report
}

// VerdictConfig controls how the overall pass/fail verdict is derived.
// SuccessThreshold is the minimum ratio of successful steps for an overall
// pass; SensorThreshold is the minimum ratio of found sensor parameters for
// the sensor suite to pass. Both are deliberately configuration, not
// constants: observed deployments run with 0.6 and 0.7.
type VerdictConfig struct {
	SuccessThreshold float64 `toml:"success_threshold"`
	SensorThreshold  float64 `toml:"sensor_threshold"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for stability; only user-facing
// settings need to appear in probo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Target: TargetConfig{
			BaseURL:   "https://iot-fakeapi.vercel.app/",
			PageTitle: "Microclimate Dashboard",
			StationPaths: []string{
				"petengoran",
				"petengoran/station1",
				"petengoran/station2",
				"kalimantan",
				"kalimantan/station1",
				"kalimantan/station2",
			},
			DownloadPassword: "admin123",
			WrongPassword:    "wrongpass",
		},
		Browser: BrowserConfig{
			Headless:       true,
			NoSandbox:      true,
			DisableGPU:     true,
			WindowWidth:    1920,
			WindowHeight:   1080,
			UserAgent:      "Probo-Harness/1.0",
			StartupTimeout: 30 * time.Second,
			ActionTimeout:  30 * time.Second,
			SettleDelay:    2 * time.Second,
		},
		Retry: RetryConfig{
			Driver:     RetrySpec{MaxAttempts: 3, BaseDelay: 2 * time.Second, Backoff: "linear"},
			Navigation: RetrySpec{MaxAttempts: 2, BaseDelay: 1500 * time.Millisecond, Backoff: "linear"},
			Element:    RetrySpec{MaxAttempts: 2, BaseDelay: time.Second, Backoff: "fixed"},
		},
		Thresholds: ThresholdsConfig{
			DriverInit:    ThresholdSpec{Hard: 15 * time.Second, Warn: 10 * time.Second},
			PageLoad:      ThresholdSpec{Hard: 10 * time.Second, Warn: 7 * time.Second},
			SensorSuite:   ThresholdSpec{Hard: 60 * time.Second, Warn: 45 * time.Second},
			VisualSuite:   ThresholdSpec{Hard: 90 * time.Second, Warn: 60 * time.Second},
			DownloadSuite: ThresholdSpec{Hard: 45 * time.Second, Warn: 30 * time.Second},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Reports: ReportsConfig{
			Dir:         "reports",
			Screenshots: true,
			PrettyJSON:  true,
		},
		Verdict: VerdictConfig{
			SuccessThreshold: 0.6,
			SensorThreshold:  0.6,
		},
	}
}

// LoadFromFiles loads configuration with precedence:
// defaults -> file1 -> file2 -> ... -> environment variables.
// Later files override earlier ones; missing keys keep prior values.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PROBO_TARGET_URL"); v != "" {
		config.Target.BaseURL = v
	}
	if v := os.Getenv("PROBO_HEADLESS"); v != "" {
		if headless, err := strconv.ParseBool(v); err == nil {
			config.Browser.Headless = headless
		}
	}
	if v := os.Getenv("PROBO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("PROBO_REPORTS_DIR"); v != "" {
		config.Reports.Dir = v
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, targetURL, reportsDir string) {
	if targetURL != "" {
		config.Target.BaseURL = targetURL
	}
	if reportsDir != "" {
		config.Reports.Dir = reportsDir
	}
}

// Validate checks the configuration for inconsistent values
func (c *Config) Validate() error {
	if c.Target.BaseURL == "" {
		return fmt.Errorf("target.base_url must not be empty")
	}
	if c.Verdict.SuccessThreshold <= 0 || c.Verdict.SuccessThreshold > 1 {
		return fmt.Errorf("verdict.success_threshold must be in (0, 1], got %v", c.Verdict.SuccessThreshold)
	}
	if c.Verdict.SensorThreshold <= 0 || c.Verdict.SensorThreshold > 1 {
		return fmt.Errorf("verdict.sensor_threshold must be in (0, 1], got %v", c.Verdict.SensorThreshold)
	}

	retries := map[string]RetrySpec{
		"driver":     c.Retry.Driver,
		"navigation": c.Retry.Navigation,
		"element":    c.Retry.Element,
	}
	for name, spec := range retries {
		if spec.MaxAttempts < 1 {
			return fmt.Errorf("retry.%s.max_attempts must be >= 1, got %d", name, spec.MaxAttempts)
		}
		if spec.BaseDelay < 0 {
			return fmt.Errorf("retry.%s.base_delay must be >= 0, got %v", name, spec.BaseDelay)
		}
		if spec.Backoff != "" && spec.Backoff != "linear" && spec.Backoff != "fixed" {
			return fmt.Errorf("retry.%s.backoff must be \"linear\" or \"fixed\", got %q", name, spec.Backoff)
		}
	}

	thresholds := map[string]ThresholdSpec{
		"driver_init":    c.Thresholds.DriverInit,
		"page_load":      c.Thresholds.PageLoad,
		"sensor_suite":   c.Thresholds.SensorSuite,
		"visual_suite":   c.Thresholds.VisualSuite,
		"download_suite": c.Thresholds.DownloadSuite,
	}
	for name, spec := range thresholds {
		if spec.Warn > spec.Hard {
			return fmt.Errorf("thresholds.%s.warn (%v) must be <= hard (%v)", name, spec.Warn, spec.Hard)
		}
	}

	return nil
}

// StationURLs resolves station paths against the base URL
func (c *Config) StationURLs() []string {
	base := c.Target.BaseURL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	urls := make([]string, 0, len(c.Target.StationPaths))
	for _, path := range c.Target.StationPaths {
		urls = append(urls, base+"/"+path)
	}
	return urls
}
