package verify

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/addressbook-verify/pkg/browser"
	"github.com/entrhq/addressbook-verify/pkg/config"
)

func TestSettingsScenario(t *testing.T) {
	cfg := config.DefaultConfig()
	steps := SettingsScenario(cfg)

	require.Len(t, steps, 12)

	var names []string
	for _, s := range steps {
		names = append(names, s.Name)
		assert.NoError(t, s.Validate(), s.Name)
	}
	assert.Equal(t, []string{
		"open application",
		"enter username",
		"enter password",
		"sign in",
		"wait for contact search",
		"open settings",
		"check modal title",
		"check configuration tab",
		"check required field label",
		"open migration tab",
		"check migration tab",
		"capture screenshot",
	}, names)

	assert.Equal(t, cfg.BaseURL, steps[0].Value)
	assert.Equal(t, browser.Placeholder("admin or user"), steps[1].Target)
	assert.Equal(t, "user", steps[1].Value)
	assert.Equal(t, browser.Label("Password"), steps[2].Target)
	assert.True(t, steps[2].Secret)
	assert.Equal(t, browser.Role("button", "Sign in"), steps[3].Target)
	assert.True(t, steps[5].Target.First)
	assert.Equal(t, filepath.Join("verification", "settings_migration.png"), steps[11].Value)
	assert.True(t, steps[11].FullPage)
}

func TestSettingsScenario_HomeURLPattern(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UI.HomeURLPattern = "*/address-book/*"

	steps := SettingsScenario(cfg)
	require.Len(t, steps, 13)
	assert.Equal(t, ActionExpectURL, steps[5].Action)
	assert.Equal(t, "*/address-book/*", steps[5].Value)
	assert.Equal(t, "open settings", steps[6].Name)
}

func TestAction_Kind(t *testing.T) {
	assert.Equal(t, KindNavigation, ActionNavigate.kind())
	assert.Equal(t, KindElementNotFound, ActionFill.kind())
	assert.Equal(t, KindElementNotFound, ActionClick.kind())
	assert.Equal(t, KindAssertion, ActionExpectVisible.kind())
	assert.Equal(t, KindAssertion, ActionExpectURL.kind())
	assert.Equal(t, KindCapture, ActionScreenshot.kind())
	assert.Equal(t, KindSetup, Action("wait").kind())
}

func TestStep_Describe(t *testing.T) {
	tests := []struct {
		step Step
		want string
	}{
		{Step{Action: ActionNavigate, Value: "http://x/"}, "navigate to http://x/"},
		{Step{Action: ActionFill, Target: browser.Placeholder("admin or user"), Value: "user"}, `fill placeholder "admin or user" with "user"`},
		{Step{Action: ActionFill, Target: browser.Label("Password"), Value: "pw", Secret: true}, `fill label "Password" with "********"`},
		{Step{Action: ActionClick, Target: browser.Text("Migration Tool")}, `click text "Migration Tool"`},
		{Step{Action: ActionExpectVisible, Target: browser.Text("Database Settings")}, `expect text "Database Settings" visible`},
		{Step{Action: ActionExpectURL, Value: "*/home"}, `expect URL matching "*/home"`},
		{Step{Action: ActionScreenshot, Value: "out.png"}, "screenshot to out.png"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.step.Describe())
		})
	}
}

func TestStep_DisplayValue(t *testing.T) {
	assert.Equal(t, "user", Step{Value: "user"}.DisplayValue())
	assert.Equal(t, "********", Step{Value: "secret", Secret: true}.DisplayValue())
	assert.Equal(t, "", Step{Secret: true}.DisplayValue())
}

func TestStep_Validate(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		wantErr string
	}{
		{name: "navigate", step: Step{Name: "n", Action: ActionNavigate, Value: "http://x/"}},
		{name: "navigate without url", step: Step{Name: "n", Action: ActionNavigate}, wantErr: `navigate step "n" requires a value`},
		{name: "screenshot without path", step: Step{Name: "s", Action: ActionScreenshot}, wantErr: `screenshot step "s" requires a value`},
		{name: "click without target", step: Step{Name: "c", Action: ActionClick}, wantErr: `step "c": target strategy is required`},
		{name: "expect", step: Step{Name: "e", Action: ActionExpectVisible, Target: browser.Text("x")}},
		{name: "unknown action", step: Step{Name: "u", Action: "hover"}, wantErr: `step "u" has unknown action "hover"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
