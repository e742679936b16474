package browser

import (
	"time"
)

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for actions (0 keeps the Playwright default)
	Timeout time.Duration

	// ExpectTimeout sets the timeout for visibility assertions (0 keeps the Playwright default)
	ExpectTimeout time.Duration
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle", "commit"
	WaitUntil string

	// Timeout for this navigation (0 means session default)
	Timeout time.Duration
}

// SessionInfo contains metadata about a browser session.
type SessionInfo struct {
	CurrentURL string
	Headless   bool
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Default values for various operations
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultSnapshotLength = 200000 // characters of cleaned DOM kept on failure
)

var validWaitStates = map[string]bool{
	"load":             true,
	"domcontentloaded": true,
	"networkidle":      true,
	"commit":           true,
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
