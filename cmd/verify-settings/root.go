package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/addressbook-verify/pkg/browser"
	"github.com/entrhq/addressbook-verify/pkg/config"
	"github.com/entrhq/addressbook-verify/pkg/logging"
	"github.com/entrhq/addressbook-verify/pkg/verify"
)

// pageOpener starts the browser and returns the page to drive plus a
// function releasing everything it started.
type pageOpener func(cfg *config.Config, logger *verify.Logger, debug *logging.Logger) (verify.Page, func() error, error)

// rootOptions holds the command-line overrides. Only flags the user set are
// applied on top of the loaded configuration.
type rootOptions struct {
	configPath    string
	baseURL       string
	username      string
	password      string
	screenshotDir string
	headed        bool
	timeout       time.Duration
	expectTimeout time.Duration
	waitUntil     string
	navTimeout    time.Duration
	verbosity     string
	reportDir     string
	logFile       bool
}

// NewRootCmd creates the root command, which runs the verification.
func NewRootCmd() *cobra.Command {
	return newRootCmd(openBrowserPage)
}

func newRootCmd(open pageOpener) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "verify-settings",
		Short: "Check the address-book settings modal in a real browser",
		Long: `verify-settings signs in to the address-book application, opens the
Database Settings modal, checks the Firebase configuration and Migration Tool
tabs and saves a full-page screenshot.

Every setting has a default, so running without arguments checks
http://localhost:5173/address-book/ with the development credentials.
Settings are taken from flags, then VERIFY_* environment variables, then the
--config file, then the defaults.

An interrupt (Ctrl-C or SIGTERM) closes the browser at once, so a step
blocked waiting for an element fails immediately and the run reports the
cancellation.

Exit status is 0 on success and non-zero on failure:
  2 setup (browser or configuration), 3 navigation, 4 element not found,
  5 assertion, 6 screenshot capture.`,
		Args:          cobra.NoArgs,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, opts, open)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (YAML)")
	flags.StringVar(&opts.baseURL, "base-url", "", "Address of the address-book application")
	flags.StringVar(&opts.username, "username", "", "Login username")
	flags.StringVar(&opts.password, "password", "", "Login password")
	flags.StringVar(&opts.screenshotDir, "screenshot-dir", "", "Directory for the success and error screenshots")
	flags.BoolVar(&opts.headed, "headed", false, "Show the browser window")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Action timeout (0 keeps the Playwright default)")
	flags.DurationVar(&opts.expectTimeout, "expect-timeout", 0, "Visibility assertion timeout (0 keeps the Playwright default)")
	flags.StringVar(&opts.waitUntil, "wait-until", "", "Load state navigation waits for: load, domcontentloaded, networkidle or commit")
	flags.DurationVar(&opts.navTimeout, "navigation-timeout", 0, "Timeout for opening the application (0 keeps the action timeout)")
	flags.StringVar(&opts.verbosity, "verbosity", "", "Console output: quiet, normal, verbose or debug")
	flags.StringVar(&opts.reportDir, "report-dir", "", "Write report.json, summary.md and metrics.prom to this directory")
	flags.BoolVar(&opts.logFile, "log-file", false, "Write a debug log for this run")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	err := NewRootCmd().Execute()
	if err != nil && verify.KindOf(err) == "" {
		// Verification failures were already reported on stdout
		fmt.Fprintln(os.Stderr, err)
	}
	return verify.ExitCode(err)
}

func runVerify(cmd *cobra.Command, opts *rootOptions, open pageOpener) error {
	started := time.Now()
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		err = verify.SetupError(err)
		fmt.Fprintf(out, "Test failed: %v\n", err)
		return err
	}

	logger := verify.NewLogger(verify.ParseLogLevel(cfg.Logging.Verbosity), cmd.ErrOrStderr())
	debug := newDebugLogger(cfg, logger)
	defer debug.Close()

	logger.Header(fmt.Sprintf("Verifying settings at %s", cfg.BaseURL))
	logger.Debugf("run %s, headless=%t, screenshots in %s", debug.RunID(), cfg.Browser.Headless, cfg.ScreenshotDir)

	report, err := verifyOnce(ctx, cfg, open, logger, debug, started)

	logger.Summary(report)
	writeArtifacts(cfg, report, logger)

	if err != nil {
		fmt.Fprintf(out, "Test failed: %v\n", err)
		return err
	}
	fmt.Fprintln(out, "Test passed!")
	return nil
}

// verifyOnce opens the browser, runs the scenario and always releases the
// browser before returning.
func verifyOnce(ctx context.Context, cfg *config.Config, open pageOpener, logger *verify.Logger, debug *logging.Logger, started time.Time) (*verify.Report, error) {
	runID := debug.RunID()

	page, closeBrowser, err := open(cfg, logger, debug)
	if err != nil {
		err = verify.SetupError(err)
		debug.Errorf("Browser setup failed: %v", err)
		return verify.NewSetupFailureReport(runID, cfg.BaseURL, started, err), err
	}

	var (
		releaseOnce sync.Once
		releaseErr  error
	)
	release := func() error {
		releaseOnce.Do(func() { releaseErr = closeBrowser() })
		return releaseErr
	}

	// Playwright waits do not observe ctx; closing the browser unblocks them
	stopWatch := context.AfterFunc(ctx, func() {
		debug.Warnf("Run cancelled, closing browser")
		_ = release()
	})
	defer stopWatch()

	defer func() {
		if closeErr := release(); closeErr != nil {
			logger.Warningf("failed to close browser: %v", closeErr)
			debug.Warnf("Browser release failed: %v", closeErr)
		}
	}()

	runner, err := verify.NewRunner(page, cfg,
		verify.WithLogger(logger),
		verify.WithDebugLogger(debug),
		verify.WithRunID(runID),
	)
	if err != nil {
		err = verify.SetupError(err)
		return verify.NewSetupFailureReport(runID, cfg.BaseURL, started, err), err
	}

	return runner.Run(ctx)
}

// loadConfig applies defaults, the config file, the environment and finally
// the flags the user set, then validates the result.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = opts.baseURL
	}
	if flags.Changed("username") {
		cfg.Username = opts.username
	}
	if flags.Changed("password") {
		cfg.Password = opts.password
	}
	if flags.Changed("screenshot-dir") {
		cfg.ScreenshotDir = opts.screenshotDir
	}
	if flags.Changed("headed") {
		cfg.Browser.Headless = !opts.headed
	}
	if flags.Changed("timeout") {
		cfg.Browser.Timeout = opts.timeout
	}
	if flags.Changed("expect-timeout") {
		cfg.Browser.ExpectTimeout = opts.expectTimeout
	}
	if flags.Changed("wait-until") {
		cfg.Browser.WaitUntil = opts.waitUntil
	}
	if flags.Changed("navigation-timeout") {
		cfg.Browser.NavigationTimeout = opts.navTimeout
	}
	if flags.Changed("verbosity") {
		cfg.Logging.Verbosity = opts.verbosity
	}
	if flags.Changed("report-dir") {
		cfg.Artifacts.Enabled = true
		cfg.Artifacts.OutputDir = opts.reportDir
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = opts.logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newDebugLogger(cfg *config.Config, console *verify.Logger) *logging.Logger {
	if !cfg.Logging.File {
		return logging.NewDiscardLogger("verify")
	}
	if cfg.Logging.Dir != "" {
		logging.SetLogDirectory(cfg.Logging.Dir)
	}

	l, err := logging.NewLogger("verify")
	if err != nil {
		console.Warningf("debug log file unavailable: %v", err)
		return l
	}
	console.Verbosef("debug log: %s", l.LogPath())
	return l
}

func writeArtifacts(cfg *config.Config, report *verify.Report, logger *verify.Logger) {
	if !cfg.Artifacts.Enabled {
		return
	}
	writer := verify.NewArtifactWriter(cfg.Artifacts.OutputDir, cfg.Artifacts)
	if err := writer.WriteAll(report); err != nil {
		logger.Warningf("failed to write artifacts: %v", err)
		return
	}
	logger.Verbosef("artifacts written to %s", cfg.Artifacts.OutputDir)
}

// driverOutput picks where Playwright install/driver output goes: the
// console in debug mode, the debug log file when enabled, nowhere otherwise.
func driverOutput(cfg *config.Config, logger *verify.Logger, debug *logging.Logger) io.Writer {
	switch {
	case logger.Level() >= verify.LogLevelDebug:
		return os.Stderr
	case cfg.Logging.File:
		return debug.Writer()
	default:
		return nil
	}
}

func openBrowserPage(cfg *config.Config, logger *verify.Logger, debug *logging.Logger) (verify.Page, func() error, error) {
	launcher := browser.NewLauncher(browser.LauncherOptions{
		SkipInstall: cfg.Browser.SkipInstall,
		Output:      driverOutput(cfg, logger, debug),
	})

	logger.Verbosef("starting Playwright (install skipped: %t)", cfg.Browser.SkipInstall)
	if err := launcher.Initialize(); err != nil {
		return nil, nil, err
	}

	sessionOpts := browser.SessionOptions{
		Headless:      cfg.Browser.Headless,
		Timeout:       cfg.Browser.Timeout,
		ExpectTimeout: cfg.Browser.ExpectTimeout,
	}
	if cfg.Browser.ViewportWidth > 0 && cfg.Browser.ViewportHeight > 0 {
		sessionOpts.Viewport = &browser.Viewport{
			Width:  cfg.Browser.ViewportWidth,
			Height: cfg.Browser.ViewportHeight,
		}
	}

	session, err := launcher.StartSession(sessionOpts)
	if err != nil {
		_ = launcher.Shutdown()
		return nil, nil, err
	}

	// Shutdown closes the session exactly once, then stops the driver
	return session, launcher.Shutdown, nil
}
