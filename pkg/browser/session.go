package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session represents an active browser session with its associated resources.
type Session struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	expect  playwright.PlaywrightAssertions

	headless   bool
	createdAt  time.Time
	lastUsedAt time.Time
	currentURL string

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// IsTimeout reports whether err came from a Playwright wait running out.
func IsTimeout(err error) bool {
	return errors.Is(err, playwright.ErrTimeout)
}

func (s *Session) touch() {
	s.lastUsedAt = time.Now()
}

// Navigate navigates the session's page to the specified URL.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.touch()

	playwrightOpts := playwright.PageGotoOptions{}

	if opts.WaitUntil != "" {
		if !validWaitStates[opts.WaitUntil] {
			return fmt.Errorf("invalid wait_until value: %s", opts.WaitUntil)
		}
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = playwright.Float(millis(opts.Timeout))
	}

	if _, err := s.page.Goto(url, playwrightOpts); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	s.currentURL = s.page.URL()
	return nil
}

// Fill fills the targeted input with value.
func (s *Session) Fill(target Target, value string) error {
	s.touch()

	if err := target.Validate(); err != nil {
		return err
	}

	if err := target.locate(s.page).Fill(value); err != nil {
		return fmt.Errorf("fill %s failed: %w", target, err)
	}
	return nil
}

// Click clicks the targeted element.
func (s *Session) Click(target Target) error {
	s.touch()

	if err := target.Validate(); err != nil {
		return err
	}

	if err := target.locate(s.page).Click(); err != nil {
		return fmt.Errorf("click %s failed: %w", target, err)
	}

	// Update current URL in case click caused navigation
	s.currentURL = s.page.URL()
	return nil
}

// ExpectVisible waits until the targeted element is visible.
func (s *Session) ExpectVisible(target Target) error {
	s.touch()

	if err := target.Validate(); err != nil {
		return err
	}

	if err := s.expect.Locator(target.locate(s.page)).ToBeVisible(); err != nil {
		return fmt.Errorf("expected %s to be visible: %w", target, err)
	}
	return nil
}

// Screenshot writes a PNG of the page to path, creating its directory.
func (s *Session) Screenshot(path string, fullPage bool) error {
	s.touch()

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}

	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(fullPage),
	})
	if err != nil {
		return fmt.Errorf("screenshot %s failed: %w", path, err)
	}
	return nil
}

// Content returns the page's serialized DOM.
func (s *Session) Content() (string, error) {
	s.touch()

	content, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

// URL returns the page's current URL.
func (s *Session) URL() string {
	return s.page.URL()
}

// Info returns metadata about the session.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		CurrentURL: s.currentURL,
		Headless:   s.headless,
		CreatedAt:  s.createdAt,
		LastUsedAt: s.lastUsedAt,
	}
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool {
	return s.closed
}

// Close releases the page, context and browser. Only the first call does
// any work; later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.page.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := s.context.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		s.closed = true
		if len(errs) > 0 {
			s.closeErr = fmt.Errorf("errors closing session: %w", errors.Join(errs...))
		}
	})
	return s.closeErr
}
