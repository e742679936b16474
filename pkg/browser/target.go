package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// LocateBy names the strategy used to find an element.
type LocateBy string

const (
	ByPlaceholder LocateBy = "placeholder"
	ByLabel       LocateBy = "label"
	ByRole        LocateBy = "role"
	ByText        LocateBy = "text"
	BySelector    LocateBy = "selector"
)

// Target describes one element on the page.
type Target struct {
	By LocateBy `yaml:"by" json:"by"`

	// Value is the placeholder, label, text or selector. For ByRole it is the
	// accessible name.
	Value string `yaml:"value" json:"value"`

	// Role is the ARIA role, only used with ByRole
	Role string `yaml:"role,omitempty" json:"role,omitempty"`

	// Exact requires a full, case-sensitive match instead of a substring match
	Exact bool `yaml:"exact,omitempty" json:"exact,omitempty"`

	// First narrows a multi-element match to the first element
	First bool `yaml:"first,omitempty" json:"first,omitempty"`
}

// Placeholder targets an input by its placeholder text.
func Placeholder(text string) Target {
	return Target{By: ByPlaceholder, Value: text}
}

// Label targets a form control by its associated label.
func Label(text string) Target {
	return Target{By: ByLabel, Value: text}
}

// Role targets an element by ARIA role and accessible name.
func Role(role, name string) Target {
	return Target{By: ByRole, Role: role, Value: name}
}

// Text targets an element by visible text.
func Text(text string) Target {
	return Target{By: ByText, Value: text}
}

// Selector targets elements by CSS selector.
func Selector(selector string) Target {
	return Target{By: BySelector, Value: selector}
}

// FirstOf narrows t to its first match.
func FirstOf(t Target) Target {
	t.First = true
	return t
}

// Validate checks that the target can be turned into a locator.
func (t Target) Validate() error {
	switch t.By {
	case ByPlaceholder, ByLabel, ByText, BySelector:
		if t.Value == "" {
			return fmt.Errorf("%s target requires a value", t.By)
		}
	case ByRole:
		if t.Role == "" {
			return fmt.Errorf("role target requires a role")
		}
	case "":
		return fmt.Errorf("target strategy is required")
	default:
		return fmt.Errorf("unsupported target strategy: %s", t.By)
	}
	return nil
}

// String renders the target for logs and error messages.
func (t Target) String() string {
	var s string
	switch t.By {
	case ByRole:
		if t.Value == "" {
			s = fmt.Sprintf("role %s", t.Role)
		} else {
			s = fmt.Sprintf("role %s named %q", t.Role, t.Value)
		}
	case "":
		s = "<empty target>"
	default:
		s = fmt.Sprintf("%s %q", t.By, t.Value)
	}
	if t.First {
		s = "first " + s
	}
	return s
}

func (t Target) locate(page playwright.Page) playwright.Locator {
	var exact *bool
	if t.Exact {
		exact = playwright.Bool(true)
	}

	var loc playwright.Locator
	switch t.By {
	case ByPlaceholder:
		loc = page.GetByPlaceholder(t.Value, playwright.PageGetByPlaceholderOptions{Exact: exact})
	case ByLabel:
		loc = page.GetByLabel(t.Value, playwright.PageGetByLabelOptions{Exact: exact})
	case ByRole:
		opts := playwright.PageGetByRoleOptions{Exact: exact}
		if t.Value != "" {
			opts.Name = t.Value
		}
		loc = page.GetByRole(playwright.AriaRole(t.Role), opts)
	case ByText:
		loc = page.GetByText(t.Value, playwright.PageGetByTextOptions{Exact: exact})
	default:
		loc = page.Locator(t.Value)
	}

	if t.First {
		loc = loc.First()
	}
	return loc
}
