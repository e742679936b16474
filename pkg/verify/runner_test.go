package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/addressbook-verify/pkg/browser"
	"github.com/entrhq/addressbook-verify/pkg/config"
)

// fakePage records calls and fails the ones selected by failOn.
type fakePage struct {
	calls         []string
	navOpts       []browser.NavigateOptions
	url           string
	content       string
	failOn        func(op string, target browser.Target) error
	screenshotErr error
}

func (p *fakePage) check(op string, target browser.Target) error {
	p.calls = append(p.calls, strings.TrimSpace(op+" "+target.String()))
	if p.failOn != nil {
		return p.failOn(op, target)
	}
	return nil
}

func (p *fakePage) Navigate(url string, opts browser.NavigateOptions) error {
	p.calls = append(p.calls, "navigate "+url)
	p.navOpts = append(p.navOpts, opts)
	if p.failOn != nil {
		if err := p.failOn("navigate", browser.Target{}); err != nil {
			return err
		}
	}
	p.url = url
	return nil
}

func (p *fakePage) Fill(target browser.Target, _ string) error {
	return p.check("fill", target)
}

func (p *fakePage) Click(target browser.Target) error {
	return p.check("click", target)
}

func (p *fakePage) ExpectVisible(target browser.Target) error {
	return p.check("expect", target)
}

func (p *fakePage) Screenshot(path string, _ bool) error {
	p.calls = append(p.calls, "screenshot "+filepath.Base(path))
	if p.screenshotErr != nil {
		return p.screenshotErr
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("png"), 0600)
}

func (p *fakePage) Content() (string, error) {
	return p.content, nil
}

func (p *fakePage) URL() string {
	return p.url
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ScreenshotDir = filepath.Join(t.TempDir(), "verification")
	return cfg
}

func failWhen(op string, target browser.Target, err error) func(string, browser.Target) error {
	return func(gotOp string, gotTarget browser.Target) error {
		if gotOp == op && gotTarget == target {
			return err
		}
		return nil
	}
}

func timeoutErr(what string) error {
	return fmt.Errorf("%s: %w", what, playwright.ErrTimeout)
}

func TestRunner_HappyPath(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{}

	runner, err := NewRunner(page, cfg, WithRunID("run-1"))
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Passed())
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 12, report.TotalSteps)
	assert.Equal(t, 12, report.PassedSteps())
	assert.Equal(t, cfg.SuccessScreenshotPath(), report.Screenshot)
	assert.Empty(t, report.Error)
	assert.Empty(t, report.Kind)

	assert.Equal(t, []string{
		"navigate http://localhost:5173/address-book/",
		`fill placeholder "admin or user"`,
		`fill label "Password"`,
		`click role button named "Sign in"`,
		`expect placeholder "Search contacts..."`,
		`click first selector "button:has(svg.lucide-settings)"`,
		`expect text "Database Settings"`,
		`expect text "Enter your Firebase Project configuration."`,
		`expect text "API Key *"`,
		`click text "Migration Tool"`,
		`expect text "Old Supabase URL"`,
		"screenshot settings_migration.png",
	}, page.calls)

	_, err = os.Stat(cfg.SuccessScreenshotPath())
	assert.NoError(t, err, "success screenshot should exist")
	_, err = os.Stat(cfg.ErrorScreenshotPath())
	assert.True(t, os.IsNotExist(err), "error screenshot should not exist")
}

func TestRunner_Failures(t *testing.T) {
	ui := config.DefaultConfig().UI

	tests := []struct {
		name       string
		failOn     func(string, browser.Target) error
		wantIndex  int
		wantStep   string
		wantKind   Kind
		wantExit   int
		wantDetail string
	}{
		{
			name: "application unreachable",
			failOn: func(op string, _ browser.Target) error {
				if op == "navigate" {
					return errors.New("net::ERR_CONNECTION_REFUSED")
				}
				return nil
			},
			wantIndex:  1,
			wantStep:   "open application",
			wantKind:   KindNavigation,
			wantExit:   3,
			wantDetail: "ERR_CONNECTION_REFUSED",
		},
		{
			name:       "credentials rejected",
			failOn:     failWhen("expect", browser.Placeholder(ui.HomeMarkerPlaceholder), timeoutErr("expected placeholder to be visible")),
			wantIndex:  5,
			wantStep:   "wait for contact search",
			wantKind:   KindAssertion,
			wantExit:   5,
			wantDetail: "timed out",
		},
		{
			name:       "settings control absent",
			failOn:     failWhen("click", browser.FirstOf(browser.Selector(ui.SettingsButtonSelector)), timeoutErr("waiting for locator")),
			wantIndex:  6,
			wantStep:   "open settings",
			wantKind:   KindElementNotFound,
			wantExit:   4,
			wantDetail: "timed out",
		},
		{
			name:      "migration tab content missing",
			failOn:    failWhen("expect", browser.Text(ui.MigrationTabText), timeoutErr("expected text")),
			wantIndex: 11,
			wantStep:  "check migration tab",
			wantKind:  KindAssertion,
			wantExit:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			page := &fakePage{failOn: tt.failOn}

			runner, err := NewRunner(page, cfg)
			require.NoError(t, err)

			report, err := runner.Run(context.Background())
			require.Error(t, err)

			var stepErr *StepError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, tt.wantIndex, stepErr.Index)
			assert.Equal(t, tt.wantStep, stepErr.Step)
			assert.Equal(t, tt.wantKind, stepErr.Kind)
			assert.Equal(t, tt.wantExit, ExitCode(err))
			if tt.wantDetail != "" {
				assert.Contains(t, err.Error(), tt.wantDetail)
			}

			assert.False(t, report.Passed())
			assert.Equal(t, tt.wantKind, report.Kind)
			assert.Equal(t, tt.wantStep, report.FailedStep)
			assert.Len(t, report.Steps, tt.wantIndex, "no step runs after the failure")
			assert.Equal(t, tt.wantIndex-1, report.PassedSteps())

			// Error screenshot replaces the evidence screenshot
			assert.Equal(t, cfg.ErrorScreenshotPath(), report.Screenshot)
			_, statErr := os.Stat(cfg.ErrorScreenshotPath())
			assert.NoError(t, statErr)
			_, statErr = os.Stat(cfg.SuccessScreenshotPath())
			assert.True(t, os.IsNotExist(statErr))
			assert.Equal(t, "screenshot error.png", page.calls[len(page.calls)-1])
		})
	}
}

func TestRunner_RejectedCredentialsFailAtLoginCheck(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{
		failOn: failWhen("expect", browser.Placeholder(cfg.UI.HomeMarkerPlaceholder), timeoutErr("expect")),
	}

	runner, err := NewRunner(page, cfg)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.Error(t, err)

	// Username, password and sign-in all succeed before the assertion fails
	for _, step := range report.Steps[:4] {
		assert.True(t, step.Passed, step.Name)
	}
	assert.Equal(t, KindAssertion, KindOf(err))
}

func TestRunner_ErrorScreenshotFailureKeepsStepError(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{
		failOn:        func(op string, _ browser.Target) error { return errors.New("refused") },
		screenshotErr: errors.New("target closed"),
	}

	var out bytes.Buffer
	runner, err := NewRunner(page, cfg, WithLogger(NewLogger(LogLevelNormal, &out)))
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNavigation, KindOf(err))
	assert.Empty(t, report.Screenshot)
	assert.Contains(t, out.String(), "could not capture error screenshot")
}

func TestRunner_CaptureFailure(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{screenshotErr: errors.New("disk full")}

	runner, err := NewRunner(page, cfg)
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindCapture, KindOf(err))
	assert.Equal(t, 6, ExitCode(err))
}

func TestRunner_Idempotent(t *testing.T) {
	cfg := testConfig(t)

	// A failed run leaves error.png behind
	failing := &fakePage{failOn: func(op string, _ browser.Target) error {
		if op == "navigate" {
			return errors.New("refused")
		}
		return nil
	}}
	runner, err := NewRunner(failing, cfg)
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	require.Error(t, err)
	_, err = os.Stat(cfg.ErrorScreenshotPath())
	require.NoError(t, err)

	// Two passing runs produce the same outcome and the same files
	var reports []*Report
	for i := 0; i < 2; i++ {
		runner, err := NewRunner(&fakePage{}, cfg)
		require.NoError(t, err)
		report, err := runner.Run(context.Background())
		require.NoError(t, err)
		reports = append(reports, report)
	}

	assert.Equal(t, reports[0].Status, reports[1].Status)
	assert.Equal(t, reports[0].Screenshot, reports[1].Screenshot)

	entries, err := os.ReadDir(cfg.ScreenshotDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"settings_migration.png"}, names)
}

func TestRunner_MasksPassword(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	runner, err := NewRunner(&fakePage{}, cfg, WithLogger(NewLogger(LogLevelDebug, &out)))
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "********", report.Steps[2].Value)
	assert.Equal(t, "user", report.Steps[1].Value)
	assert.NotContains(t, out.String(), cfg.Password)
}

func TestRunner_ContextCancelled(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, err := NewRunner(page, cfg)
	require.NoError(t, err)

	report, err := runner.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, report.Steps, 1)
	assert.Equal(t, []string{"screenshot error.png"}, page.calls, "no browser action runs after cancellation")
}

func TestRunner_HomeURLPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{name: "matching", pattern: "http://localhost:5173/address-book/*"},
		{name: "not matching", pattern: "*/login*", wantErr: true},
		{name: "invalid", pattern: "[", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.UI.HomeURLPattern = tt.pattern

			runner, err := NewRunner(&fakePage{}, cfg)
			require.NoError(t, err)
			assert.Len(t, runner.Steps(), 13)

			_, err = runner.Run(context.Background())
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, KindAssertion, KindOf(err))
			assert.Equal(t, "check home URL", err.(*StepError).Step)
		})
	}
}

func TestRunner_DOMSnapshot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Artifacts.Enabled = true
	cfg.Artifacts.DOMSnapshot = true

	page := &fakePage{
		content: `<html><body><script>x()</script><button><svg class="lucide-settings"></svg></button></body></html>`,
		failOn:  failWhen("expect", browser.Text(cfg.UI.ModalTitle), timeoutErr("expect")),
	}

	runner, err := NewRunner(page, cfg)
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, cfg.ErrorSnapshotPath(), report.DOMSnapshot)

	data, err := os.ReadFile(cfg.ErrorSnapshotPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), `<svg class="lucide-settings">`)
	assert.NotContains(t, string(data), "x()")
}

func TestNewRunner_Validation(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := NewRunner(nil, cfg)
	assert.EqualError(t, err, "page is required")

	bad := config.DefaultConfig()
	bad.BaseURL = ""
	_, err = NewRunner(&fakePage{}, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, err = NewRunner(&fakePage{}, cfg, WithSteps([]Step{}))
	assert.EqualError(t, err, "scenario has no steps")

	_, err = NewRunner(&fakePage{}, cfg, WithSteps([]Step{{Name: "broken", Action: ActionClick}}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestRunner_CustomSteps(t *testing.T) {
	cfg := testConfig(t)
	page := &fakePage{}

	steps := []Step{
		{Name: "open", Action: ActionNavigate, Value: "http://localhost:5173/address-book/"},
		{Name: "title", Action: ActionExpectVisible, Target: browser.Text("Address Book")},
	}
	runner, err := NewRunner(page, cfg, WithSteps(steps))
	require.NoError(t, err)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalSteps)
	assert.Empty(t, report.Screenshot, "no screenshot step, no evidence path")
}

// sessionPage adds session metadata to fakePage.
type sessionPage struct {
	fakePage
	info browser.SessionInfo
}

func (p *sessionPage) Info() browser.SessionInfo {
	return p.info
}

func TestRunner_FailureRemovesEarlierSuccessScreenshot(t *testing.T) {
	cfg := testConfig(t)

	runner, err := NewRunner(&fakePage{}, cfg)
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(cfg.SuccessScreenshotPath())
	require.NoError(t, err)

	failing := &fakePage{failOn: func(op string, _ browser.Target) error {
		if op == "navigate" {
			return errors.New("net::ERR_CONNECTION_REFUSED")
		}
		return nil
	}}
	runner, err = NewRunner(failing, cfg)
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	require.Error(t, err)

	entries, err := os.ReadDir(cfg.ScreenshotDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"error.png"}, names)
}

func TestRunner_NavigateUsesBrowserSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.Browser.WaitUntil = "networkidle"
	cfg.Browser.NavigationTimeout = 45 * time.Second
	page := &fakePage{}

	runner, err := NewRunner(page, cfg)
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []browser.NavigateOptions{{WaitUntil: "networkidle", Timeout: 45 * time.Second}}, page.navOpts)
}

func TestRunner_LogsSessionInfo(t *testing.T) {
	cfg := testConfig(t)
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	page := &sessionPage{info: browser.SessionInfo{
		CurrentURL: "http://localhost:5173/address-book/",
		Headless:   true,
		CreatedAt:  created,
		LastUsedAt: created.Add(1500 * time.Millisecond),
	}}

	var out bytes.Buffer
	runner, err := NewRunner(page, cfg, WithLogger(NewLogger(LogLevelDebug, &out)))
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "[DEBUG] session: url=http://localhost:5173/address-book/ headless=true active for 1.5s")
}

func TestRunner_CancelledDuringStep(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancelling closes the browser, so the blocked wait fails with a
	// closed-target error rather than a timeout.
	page := &fakePage{failOn: func(op string, target browser.Target) error {
		if op == "expect" && target == browser.Placeholder(cfg.UI.HomeMarkerPlaceholder) {
			cancel()
			return errors.New("target page, context or browser has been closed")
		}
		return nil
	}}

	runner, err := NewRunner(page, cfg)
	require.NoError(t, err)

	report, err := runner.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Contains(t, err.Error(), "run cancelled")
	assert.Contains(t, err.Error(), "has been closed")
	assert.Len(t, report.Steps, 5)
}
