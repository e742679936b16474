package verify

import (
	"fmt"

	"github.com/entrhq/addressbook-verify/pkg/browser"
	"github.com/entrhq/addressbook-verify/pkg/config"
)

// Action is what a step does with its target.
type Action string

const (
	ActionNavigate      Action = "navigate"
	ActionFill          Action = "fill"
	ActionClick         Action = "click"
	ActionExpectVisible Action = "expect_visible"
	ActionExpectURL     Action = "expect_url"
	ActionScreenshot    Action = "screenshot"
)

// kind returns the failure kind reported when a step with this action fails.
func (a Action) kind() Kind {
	switch a {
	case ActionNavigate:
		return KindNavigation
	case ActionFill, ActionClick:
		return KindElementNotFound
	case ActionExpectVisible, ActionExpectURL:
		return KindAssertion
	case ActionScreenshot:
		return KindCapture
	default:
		return KindSetup
	}
}

// Step is one scripted action or assertion.
type Step struct {
	Name   string
	Action Action
	Target browser.Target

	// Value is the URL, fill text, URL glob or screenshot path depending on Action
	Value string

	// Secret keeps Value out of logs and reports
	Secret bool

	// FullPage applies to screenshot steps
	FullPage bool
}

// DisplayValue returns Value, masked for secret steps.
func (s Step) DisplayValue() string {
	if s.Secret && s.Value != "" {
		return "********"
	}
	return s.Value
}

// Describe renders the step for progress output.
func (s Step) Describe() string {
	switch s.Action {
	case ActionNavigate:
		return fmt.Sprintf("navigate to %s", s.Value)
	case ActionFill:
		return fmt.Sprintf("fill %s with %q", s.Target, s.DisplayValue())
	case ActionClick:
		return fmt.Sprintf("click %s", s.Target)
	case ActionExpectVisible:
		return fmt.Sprintf("expect %s visible", s.Target)
	case ActionExpectURL:
		return fmt.Sprintf("expect URL matching %q", s.Value)
	case ActionScreenshot:
		return fmt.Sprintf("screenshot to %s", s.Value)
	default:
		return string(s.Action)
	}
}

// Validate checks that the step has what its action needs.
func (s Step) Validate() error {
	switch s.Action {
	case ActionNavigate, ActionExpectURL, ActionScreenshot:
		if s.Value == "" {
			return fmt.Errorf("%s step %q requires a value", s.Action, s.Name)
		}
	case ActionFill, ActionClick, ActionExpectVisible:
		if err := s.Target.Validate(); err != nil {
			return fmt.Errorf("step %q: %w", s.Name, err)
		}
	default:
		return fmt.Errorf("step %q has unknown action %q", s.Name, s.Action)
	}
	return nil
}

// SettingsScenario builds the login, settings modal and migration tab check.
func SettingsScenario(cfg *config.Config) []Step {
	ui := cfg.UI

	steps := []Step{
		{
			Name:   "open application",
			Action: ActionNavigate,
			Value:  cfg.BaseURL,
		},
		{
			Name:   "enter username",
			Action: ActionFill,
			Target: browser.Placeholder(ui.UsernamePlaceholder),
			Value:  cfg.Username,
		},
		{
			Name:   "enter password",
			Action: ActionFill,
			Target: browser.Label(ui.PasswordLabel),
			Value:  cfg.Password,
			Secret: true,
		},
		{
			Name:   "sign in",
			Action: ActionClick,
			Target: browser.Role("button", ui.SignInButton),
		},
		{
			Name:   "wait for contact search",
			Action: ActionExpectVisible,
			Target: browser.Placeholder(ui.HomeMarkerPlaceholder),
		},
	}

	if ui.HomeURLPattern != "" {
		steps = append(steps, Step{
			Name:   "check home URL",
			Action: ActionExpectURL,
			Value:  ui.HomeURLPattern,
		})
	}

	return append(steps,
		Step{
			Name:   "open settings",
			Action: ActionClick,
			Target: browser.FirstOf(browser.Selector(ui.SettingsButtonSelector)),
		},
		Step{
			Name:   "check modal title",
			Action: ActionExpectVisible,
			Target: browser.Text(ui.ModalTitle),
		},
		Step{
			Name:   "check configuration tab",
			Action: ActionExpectVisible,
			Target: browser.Text(ui.ConfigTabText),
		},
		Step{
			Name:   "check required field label",
			Action: ActionExpectVisible,
			Target: browser.Text(ui.RequiredFieldLabel),
		},
		Step{
			Name:   "open migration tab",
			Action: ActionClick,
			Target: browser.Text(ui.MigrationTab),
		},
		Step{
			Name:   "check migration tab",
			Action: ActionExpectVisible,
			Target: browser.Text(ui.MigrationTabText),
		},
		Step{
			Name:     "capture screenshot",
			Action:   ActionScreenshot,
			Value:    cfg.SuccessScreenshotPath(),
			FullPage: cfg.FullPage,
		},
	)
}
