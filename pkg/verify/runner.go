package verify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/entrhq/addressbook-verify/pkg/browser"
	"github.com/entrhq/addressbook-verify/pkg/config"
	"github.com/entrhq/addressbook-verify/pkg/logging"
)

// Page is the part of a browser session the runner drives.
// *browser.Session implements it.
type Page interface {
	Navigate(url string, opts browser.NavigateOptions) error
	Fill(target browser.Target, value string) error
	Click(target browser.Target) error
	ExpectVisible(target browser.Target) error
	Screenshot(path string, fullPage bool) error
	Content() (string, error)
	URL() string
}

// sessionInfoProvider is implemented by pages that can describe their
// browser session, such as *browser.Session.
type sessionInfoProvider interface {
	Info() browser.SessionInfo
}

// Runner executes a scenario once against a page.
type Runner struct {
	page   Page
	cfg    *config.Config
	steps  []Step
	runID  string
	logger *Logger
	debug  *logging.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithSteps replaces the default settings scenario.
func WithSteps(steps []Step) RunnerOption {
	return func(r *Runner) {
		r.steps = steps
	}
}

// WithLogger sets the console logger.
func WithLogger(l *Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithDebugLogger sets the debug file logger.
func WithDebugLogger(l *logging.Logger) RunnerOption {
	return func(r *Runner) {
		r.debug = l
	}
}

// WithRunID sets the run ID recorded in the report.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		r.runID = id
	}
}

// NewRunner creates a runner for cfg. The settings scenario is used unless
// WithSteps is given.
func NewRunner(page Page, cfg *config.Config, opts ...RunnerOption) (*Runner, error) {
	if page == nil {
		return nil, fmt.Errorf("page is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	r := &Runner{
		page: page,
		cfg:  cfg,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.steps == nil {
		r.steps = SettingsScenario(cfg)
	}
	if len(r.steps) == 0 {
		return nil, fmt.Errorf("scenario has no steps")
	}
	for _, step := range r.steps {
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("invalid scenario: %w", err)
		}
	}

	if r.runID == "" {
		r.runID = uuid.New().String()
	}
	if r.logger == nil {
		r.logger = NewLogger(LogLevelQuiet, nil)
	}
	if r.debug == nil {
		r.debug = logging.NewDiscardLogger("runner")
	}

	return r, nil
}

// Steps returns the scenario the runner executes.
func (r *Runner) Steps() []Step {
	return r.steps
}

// Run executes every step in order and stops at the first failure. The
// returned error is a *StepError. The report is always non-nil.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:      r.runID,
		Status:     statusRunning,
		BaseURL:    r.cfg.BaseURL,
		StartTime:  time.Now(),
		TotalSteps: len(r.steps),
	}

	r.debug.Infof("Starting run %s against %s (%d steps)", r.runID, r.cfg.BaseURL, len(r.steps))

	for i, step := range r.steps {
		index := i + 1
		r.logger.Step(index, len(r.steps), step.Describe())
		r.debug.Debugf("Step %d: %s", index, step.Describe())

		var err error
		start := time.Now()
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("run cancelled: %w", ctxErr)
		} else {
			err = r.execute(step)
			if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
				// The browser was closed under a blocked wait
				err = fmt.Errorf("run cancelled: %w (%v)", ctxErr, err)
			}
		}
		elapsed := time.Since(start)

		result := StepResult{
			Index:    index,
			Name:     step.Name,
			Action:   step.Action,
			Value:    step.DisplayValue(),
			Duration: elapsed,
			Passed:   err == nil,
		}
		if step.Target.By != "" {
			result.Target = step.Target.String()
		}

		if err != nil {
			stepErr := &StepError{Index: index, Step: step.Name, Kind: step.Action.kind(), Err: err}
			result.Error = stepErr.Error()
			report.Steps = append(report.Steps, result)
			r.fail(report, stepErr)
			return report, stepErr
		}

		report.Steps = append(report.Steps, result)
		r.logger.StepDone(elapsed)
		if step.Action == ActionScreenshot {
			report.Screenshot = step.Value
		}
	}

	r.removeStaleFailureOutputs()

	report.Status = statusPassed
	r.finish(report)
	r.debug.Infof("Run %s passed in %s", r.runID, report.Duration)
	return report, nil
}

func (r *Runner) execute(step Step) error {
	switch step.Action {
	case ActionNavigate:
		return r.page.Navigate(step.Value, browser.NavigateOptions{
			WaitUntil: r.cfg.Browser.WaitUntil,
			Timeout:   r.cfg.Browser.NavigationTimeout,
		})
	case ActionFill:
		return r.page.Fill(step.Target, step.Value)
	case ActionClick:
		return r.page.Click(step.Target)
	case ActionExpectVisible:
		return r.page.ExpectVisible(step.Target)
	case ActionExpectURL:
		return r.expectURL(step.Value)
	case ActionScreenshot:
		return r.page.Screenshot(step.Value, step.FullPage)
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

func (r *Runner) expectURL(pattern string) error {
	g, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid URL pattern %q: %w", pattern, err)
	}
	current := r.page.URL()
	if !g.Match(current) {
		return fmt.Errorf("URL %q does not match %q", current, pattern)
	}
	return nil
}

// fail records the failure and captures post-mortem evidence. Capture
// problems are logged and never replace the step error.
func (r *Runner) fail(report *Report, stepErr *StepError) {
	report.Status = statusFailed
	report.Error = stepErr.Error()
	report.Kind = stepErr.Kind
	report.FailedStep = stepErr.Step

	r.logger.Errorf("%s", stepErr.Error())
	r.debug.Errorf("Run %s failed: %s", r.runID, stepErr.Error())

	// A success screenshot from an earlier run must not outlive this failure
	if stepErr.Kind != KindCapture {
		r.removeFiles(r.cfg.SuccessScreenshotPath())
	}

	shot := r.cfg.ErrorScreenshotPath()
	if err := r.page.Screenshot(shot, r.cfg.FullPage); err != nil {
		r.logger.Warningf("could not capture error screenshot: %v", err)
		r.debug.Warnf("Error screenshot failed: %v", err)
	} else {
		report.Screenshot = shot
		r.logger.Verbosef("error screenshot written to %s", shot)
	}

	if r.cfg.Artifacts.Enabled && r.cfg.Artifacts.DOMSnapshot {
		path, err := r.captureDOM()
		if err != nil {
			r.logger.Warningf("could not capture DOM snapshot: %v", err)
			r.debug.Warnf("DOM snapshot failed: %v", err)
		} else {
			report.DOMSnapshot = path
			r.logger.Verbosef("DOM snapshot written to %s", path)
		}
	}

	r.finish(report)
}

func (r *Runner) captureDOM() (string, error) {
	content, err := r.page.Content()
	if err != nil {
		return "", err
	}

	snap, err := browser.CleanHTML(content, browser.DefaultSnapshotLength)
	if err != nil {
		return "", err
	}

	path := r.cfg.ErrorSnapshotPath()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(snap.HTML), 0600); err != nil {
		return "", fmt.Errorf("failed to write DOM snapshot: %w", err)
	}
	return path, nil
}

// removeStaleFailureOutputs deletes failure evidence left by an earlier run
// so that a passing run leaves only the success screenshot behind.
func (r *Runner) removeStaleFailureOutputs() {
	r.removeFiles(r.cfg.ErrorScreenshotPath(), r.cfg.ErrorSnapshotPath())
}

func (r *Runner) removeFiles(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.debug.Warnf("Could not remove stale %s: %v", path, err)
		}
	}
}

func (r *Runner) finish(report *Report) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	if p, ok := r.page.(sessionInfoProvider); ok {
		info := p.Info()
		r.logger.Debugf("session: url=%s headless=%t active for %s, idle %s",
			info.CurrentURL, info.Headless,
			info.LastUsedAt.Sub(info.CreatedAt).Round(time.Millisecond),
			report.EndTime.Sub(info.LastUsedAt).Round(time.Millisecond))
		r.debug.Debugf("Session info: url=%s headless=%t created=%s last_used=%s",
			info.CurrentURL, info.Headless,
			info.CreatedAt.Format(time.RFC3339Nano), info.LastUsedAt.Format(time.RFC3339Nano))
	}
}
