package verify

import (
	"errors"
	"fmt"

	"github.com/entrhq/addressbook-verify/pkg/browser"
)

// Kind classifies why a run failed.
type Kind string

const (
	// KindNavigation means the application could not be loaded
	KindNavigation Kind = "navigation"
	// KindElementNotFound means an element to fill or click never appeared
	KindElementNotFound Kind = "element_not_found"
	// KindAssertion means an expected element or URL condition did not hold
	KindAssertion Kind = "assertion"
	// KindCapture means the evidence screenshot could not be written
	KindCapture Kind = "capture"
	// KindSetup means the browser could not be started or the run was misconfigured
	KindSetup Kind = "setup"
)

// ExitCode maps a failure kind to the process exit status.
func (k Kind) ExitCode() int {
	switch k {
	case KindSetup:
		return 2
	case KindNavigation:
		return 3
	case KindElementNotFound:
		return 4
	case KindAssertion:
		return 5
	case KindCapture:
		return 6
	default:
		return 1
	}
}

// StepError reports the step that failed and why.
type StepError struct {
	Index int // 1-based position in the scenario, 0 for setup failures
	Step  string
	Kind  Kind
	Err   error
}

func (e *StepError) Error() string {
	detail := e.Err.Error()
	if browser.IsTimeout(e.Err) {
		detail = "timed out: " + detail
	}
	if e.Step == "" {
		return fmt.Sprintf("%s: %s", e.Kind, detail)
	}
	return fmt.Sprintf("step %d (%s) %s: %s", e.Index, e.Step, e.Kind, detail)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status for this failure.
func (e *StepError) ExitCode() int {
	return e.Kind.ExitCode()
}

// SetupError wraps an error raised before the scenario starts.
func SetupError(err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Kind: KindSetup, Err: err}
}

// KindOf returns the failure kind carried by err, or "" for nil and
// unclassified errors.
func KindOf(err error) Kind {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Kind
	}
	return ""
}

// ExitCode returns 0 for nil, the kind's exit code for classified errors and
// 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}
