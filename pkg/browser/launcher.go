package browser

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// LauncherOptions configures the Playwright driver.
type LauncherOptions struct {
	// SkipInstall assumes the driver and Chromium are already installed
	SkipInstall bool

	// Output receives driver install/run output; nil discards it
	Output io.Writer
}

// Launcher owns the Playwright driver and the single active session.
type Launcher struct {
	mu          sync.Mutex
	opts        LauncherOptions
	playwright  *playwright.Playwright
	session     *Session
	initialized bool
}

// NewLauncher creates a launcher. Initialize must be called before StartSession.
func NewLauncher(opts LauncherOptions) *Launcher {
	return &Launcher{opts: opts}
}

// Initialize installs (unless skipped) and starts the Playwright driver.
func (l *Launcher) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil
	}

	out := l.opts.Output
	if out == nil {
		out = io.Discard
	}
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  l.opts.Output != nil,
		Stdout:   out,
		Stderr:   out,
	}

	if !l.opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.playwright = pw
	l.initialized = true
	return nil
}

// StartSession launches Chromium and opens a page.
func (l *Launcher) StartSession(opts SessionOptions) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil, fmt.Errorf("launcher not initialized")
	}
	if l.session != nil && !l.session.Closed() {
		return nil, fmt.Errorf("a browser session is already active")
	}

	// Set defaults
	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}

	browser, err := l.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if opts.Timeout > 0 {
		page.SetDefaultTimeout(millis(opts.Timeout))
	}

	var assertions playwright.PlaywrightAssertions
	if opts.ExpectTimeout > 0 {
		assertions = playwright.NewPlaywrightAssertions(millis(opts.ExpectTimeout))
	} else {
		assertions = playwright.NewPlaywrightAssertions()
	}

	now := time.Now()
	session := &Session{
		browser:    browser,
		context:    context,
		page:       page,
		expect:     assertions,
		headless:   opts.Headless,
		createdAt:  now,
		lastUsedAt: now,
		currentURL: "about:blank",
	}

	l.session = session
	return session, nil
}

// Session returns the active session, or nil.
func (l *Launcher) Session() *Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session == nil || l.session.Closed() {
		return nil
	}
	return l.session
}

// Shutdown closes the active session and stops Playwright.
func (l *Launcher) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.session != nil {
		if err := l.session.Close(); err != nil {
			errs = append(errs, err)
		}
		l.session = nil
	}

	if l.initialized && l.playwright != nil {
		if err := l.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		l.initialized = false
	}

	return errors.Join(errs...)
}
