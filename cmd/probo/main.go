package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/browser"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/orchestrator"
	"github.com/ternarybob/probo/internal/report"
	"github.com/ternarybob/probo/internal/runlog"
)

// Exit codes: 0 overall pass, 1 failure or fatal error, 130 interrupted
const exitInterrupted = 130

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	targetURL    = flag.String("url", "", "Dashboard base URL (overrides config)")
	reportsDir   = flag.String("reports", "", "Reports directory (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Probo version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("probo.toml"); err == nil {
			configFiles = append(configFiles, "probo.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *targetURL, *reportsDir)

	// Each run gets its own directory for logs, screenshots, and reports
	runDir := filepath.Join(config.Reports.Dir, time.Now().Format("run_20060102_150405"))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		arbor.NewLogger().Fatal().Err(err).Str("dir", runDir).Msg("Failed to create run directory")
		os.Exit(1)
	}

	logger = common.InitLogger(config, runDir)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("target", config.Target.BaseURL).
		Str("run_dir", runDir).
		Str("log_level", config.Logging.Level).
		Msg("Harness configuration loaded")

	runLog := runlog.New(logger, runDir)
	defer runLog.Close()

	renderer := report.NewWriter(logger, runDir, config.Reports.PrettyJSON)

	newDriver := func() (browser.Driver, error) {
		driver := browser.NewChromeDriver(config.Browser, logger)
		if err := driver.Start(); err != nil {
			return nil, err
		}
		return driver, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, syscall.SIGINT, syscall.SIGTERM)
	wasInterrupted := false
	go func() {
		sig := <-interrupted
		wasInterrupted = true
		logger.Warn().Str("signal", sig.String()).Msg("Interrupted, finishing up")
		cancel()
	}()

	summary := orchestrator.New(config, runLog, renderer, runDir, newDriver).Run(ctx)

	if wasInterrupted {
		os.Exit(exitInterrupted)
	}
	if !summary.Passed {
		os.Exit(1)
	}
}
