package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"
)

// Config represents the configuration for a settings verification run
type Config struct {
	// Address of the running address-book application
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Test credentials
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`

	// Screenshot output
	ScreenshotDir     string `yaml:"screenshot_dir" json:"screenshot_dir"`
	SuccessScreenshot string `yaml:"success_screenshot" json:"success_screenshot"`
	ErrorScreenshot   string `yaml:"error_screenshot" json:"error_screenshot"`
	FullPage          bool   `yaml:"full_page" json:"full_page"`

	// Browser settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Expected UI labels, placeholders and text
	UI UIConfig `yaml:"ui" json:"ui"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Artifacts configuration
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`
}

// BrowserConfig controls how the Chromium session is launched
type BrowserConfig struct {
	Headless bool `yaml:"headless" json:"headless"`

	// Timeout overrides the Playwright default action timeout when non-zero
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// ExpectTimeout overrides the Playwright default assertion timeout when non-zero
	ExpectTimeout time.Duration `yaml:"expect_timeout" json:"expect_timeout"`

	// WaitUntil is the load state the navigate step waits for:
	// load, domcontentloaded, networkidle or commit
	WaitUntil string `yaml:"wait_until" json:"wait_until"`

	// NavigationTimeout bounds the navigate step when non-zero
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`

	ViewportWidth  int `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height" json:"viewport_height"`

	// SkipInstall skips the Playwright driver/browser download
	SkipInstall bool `yaml:"skip_install" json:"skip_install"`
}

// UIConfig holds the locator values the scenario relies on
type UIConfig struct {
	UsernamePlaceholder    string `yaml:"username_placeholder" json:"username_placeholder"`
	PasswordLabel          string `yaml:"password_label" json:"password_label"`
	SignInButton           string `yaml:"sign_in_button" json:"sign_in_button"`
	HomeMarkerPlaceholder  string `yaml:"home_marker_placeholder" json:"home_marker_placeholder"`
	HomeURLPattern         string `yaml:"home_url_pattern" json:"home_url_pattern,omitempty"`
	SettingsButtonSelector string `yaml:"settings_button_selector" json:"settings_button_selector"`
	ModalTitle             string `yaml:"modal_title" json:"modal_title"`
	ConfigTabText          string `yaml:"config_tab_text" json:"config_tab_text"`
	RequiredFieldLabel     string `yaml:"required_field_label" json:"required_field_label"`
	MigrationTab           string `yaml:"migration_tab" json:"migration_tab"`
	MigrationTabText       string `yaml:"migration_tab_text" json:"migration_tab_text"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls console output: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`

	// File enables the per-run debug log file
	File bool `yaml:"file" json:"file"`

	// Dir overrides the debug log directory
	Dir string `yaml:"dir" json:"dir,omitempty"`
}

// ArtifactConfig defines artifact generation configuration
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Individual format flags
	JSON        bool `yaml:"json" json:"json"`
	Markdown    bool `yaml:"markdown" json:"markdown"`
	Metrics     bool `yaml:"metrics" json:"metrics"`
	DOMSnapshot bool `yaml:"dom_snapshot" json:"dom_snapshot"`
}

// Defaults matching the address-book deployment used in development
const (
	DefaultBaseURL           = "http://localhost:5173/address-book/"
	DefaultUsername          = "user"
	DefaultPassword          = "CWS$2025"
	DefaultScreenshotDir     = "verification"
	DefaultSuccessScreenshot = "settings_migration.png"
	DefaultErrorScreenshot   = "error.png"
	DefaultViewportWidth     = 1280
	DefaultViewportHeight    = 720
	DefaultVerbosity         = "normal"
	DefaultWaitUntil         = "load"
)

var validWaitUntil = map[string]bool{
	"load":             true,
	"domcontentloaded": true,
	"networkidle":      true,
	"commit":           true,
}

var validVerbosity = map[string]bool{
	"quiet":   true,
	"normal":  true,
	"verbose": true,
	"debug":   true,
}

// DefaultConfig returns the configuration for the standard settings check
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		Username:          DefaultUsername,
		Password:          DefaultPassword,
		ScreenshotDir:     DefaultScreenshotDir,
		SuccessScreenshot: DefaultSuccessScreenshot,
		ErrorScreenshot:   DefaultErrorScreenshot,
		FullPage:          true,
		Browser: BrowserConfig{
			Headless:       true,
			WaitUntil:      DefaultWaitUntil,
			ViewportWidth:  DefaultViewportWidth,
			ViewportHeight: DefaultViewportHeight,
		},
		UI: UIConfig{
			UsernamePlaceholder:    "admin or user",
			PasswordLabel:          "Password",
			SignInButton:           "Sign in",
			HomeMarkerPlaceholder:  "Search contacts...",
			SettingsButtonSelector: "button:has(svg.lucide-settings)",
			ModalTitle:             "Database Settings",
			ConfigTabText:          "Enter your Firebase Project configuration.",
			RequiredFieldLabel:     "API Key *",
			MigrationTab:           "Migration Tool",
			MigrationTabText:       "Old Supabase URL",
		},
		Logging: LoggingConfig{
			Verbosity: DefaultVerbosity,
		},
		Artifacts: ArtifactConfig{
			Enabled:     false,
			OutputDir:   ".verify/artifacts",
			JSON:        true,
			Markdown:    true,
			Metrics:     true,
			DOMSnapshot: true,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url scheme: %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base_url: missing host")
	}

	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}

	if c.ScreenshotDir == "" {
		return fmt.Errorf("screenshot_dir is required")
	}
	if c.SuccessScreenshot == "" || c.ErrorScreenshot == "" {
		return fmt.Errorf("success_screenshot and error_screenshot are required")
	}
	if c.SuccessScreenshot == c.ErrorScreenshot {
		return fmt.Errorf("success_screenshot and error_screenshot must differ")
	}

	if c.Browser.Timeout < 0 {
		return fmt.Errorf("browser timeout cannot be negative")
	}
	if c.Browser.ExpectTimeout < 0 {
		return fmt.Errorf("browser expect_timeout cannot be negative")
	}
	if c.Browser.NavigationTimeout < 0 {
		return fmt.Errorf("browser navigation_timeout cannot be negative")
	}
	if c.Browser.WaitUntil != "" && !validWaitUntil[c.Browser.WaitUntil] {
		return fmt.Errorf("invalid browser wait_until: %s (must be 'load', 'domcontentloaded', 'networkidle', or 'commit')", c.Browser.WaitUntil)
	}
	if c.Browser.ViewportWidth < 0 || c.Browser.ViewportHeight < 0 {
		return fmt.Errorf("viewport dimensions cannot be negative")
	}

	if err := c.UI.validate(); err != nil {
		return err
	}

	if c.Artifacts.Enabled && c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts output_dir is required when artifacts are enabled")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = DefaultVerbosity
	}
	if !validVerbosity[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

func (u UIConfig) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"username_placeholder", u.UsernamePlaceholder},
		{"password_label", u.PasswordLabel},
		{"sign_in_button", u.SignInButton},
		{"home_marker_placeholder", u.HomeMarkerPlaceholder},
		{"settings_button_selector", u.SettingsButtonSelector},
		{"modal_title", u.ModalTitle},
		{"config_tab_text", u.ConfigTabText},
		{"required_field_label", u.RequiredFieldLabel},
		{"migration_tab", u.MigrationTab},
		{"migration_tab_text", u.MigrationTabText},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("ui.%s is required", field.name)
		}
	}
	return nil
}

// SuccessScreenshotPath returns where the evidence screenshot is written
func (c *Config) SuccessScreenshotPath() string {
	return filepath.Join(c.ScreenshotDir, c.SuccessScreenshot)
}

// ErrorScreenshotPath returns where the failure screenshot is written
func (c *Config) ErrorScreenshotPath() string {
	return filepath.Join(c.ScreenshotDir, c.ErrorScreenshot)
}

// ErrorSnapshotPath returns where the cleaned DOM is written on failure.
// It sits next to the error screenshot with an .html extension.
func (c *Config) ErrorSnapshotPath() string {
	base := c.ErrorScreenshot
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return filepath.Join(c.ScreenshotDir, base+".html")
}
