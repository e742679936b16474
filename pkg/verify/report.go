package verify

import (
	"time"
)

const (
	statusPassed  = "passed"
	statusFailed  = "failed"
	statusRunning = "running"
)

// Report is the outcome of one run.
type Report struct {
	RunID       string        `json:"run_id"`
	Status      string        `json:"status"`
	BaseURL     string        `json:"base_url"`
	Error       string        `json:"error,omitempty"`
	Kind        Kind          `json:"kind,omitempty"`
	FailedStep  string        `json:"failed_step,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	TotalSteps  int           `json:"total_steps"`
	Steps       []StepResult  `json:"steps"`
	Screenshot  string        `json:"screenshot,omitempty"`
	DOMSnapshot string        `json:"dom_snapshot,omitempty"`
}

// StepResult records one executed step.
type StepResult struct {
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Action   Action        `json:"action"`
	Target   string        `json:"target,omitempty"`
	Value    string        `json:"value,omitempty"`
	Duration time.Duration `json:"duration"`
	Passed   bool          `json:"passed"`
	Error    string        `json:"error,omitempty"`
}

// Passed reports whether every step succeeded.
func (r *Report) Passed() bool {
	return r.Status == statusPassed
}

// PassedSteps counts the steps that succeeded.
func (r *Report) PassedSteps() int {
	n := 0
	for _, s := range r.Steps {
		if s.Passed {
			n++
		}
	}
	return n
}

// NewSetupFailureReport describes a run that failed before any step ran,
// such as the browser failing to launch.
func NewSetupFailureReport(runID, baseURL string, started time.Time, err error) *Report {
	end := time.Now()
	return &Report{
		RunID:     runID,
		Status:    statusFailed,
		BaseURL:   baseURL,
		Error:     err.Error(),
		Kind:      KindOf(err),
		StartTime: started,
		EndTime:   end,
		Duration:  end.Sub(started),
	}
}
