package verify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// LogLevel represents the console verbosity level
type LogLevel int

const (
	// LogLevelQuiet shows only errors and warnings
	LogLevelQuiet LogLevel = iota
	// LogLevelNormal shows step progress (default)
	LogLevelNormal
	// LogLevelVerbose adds step timings and artifact paths
	LogLevelVerbose
	// LogLevelDebug shows all internal details for debugging
	LogLevelDebug
)

// ParseLogLevel converts a verbosity name to a LogLevel
func ParseLogLevel(level string) LogLevel {
	switch level {
	case "quiet":
		return LogLevelQuiet
	case "normal":
		return LogLevelNormal
	case "verbose":
		return LogLevelVerbose
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelNormal
	}
}

// Logger prints run progress for a human watching the terminal. It writes to
// stderr by default so stdout only carries the final status line.
type Logger struct {
	level  LogLevel
	writer io.Writer

	header  lipgloss.Style
	step    lipgloss.Style
	success lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

// NewLogger creates a console logger writing to w (stderr when nil)
func NewLogger(level LogLevel, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	r := lipgloss.NewRenderer(w)

	return &Logger{
		level:   level,
		writer:  w,
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		step:    r.NewStyle().Foreground(lipgloss.Color("6")),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		info:    r.NewStyle().Foreground(lipgloss.Color("217")),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Level returns the logger's verbosity
func (l *Logger) Level() LogLevel {
	return l.level
}

// Header prints a prominent header message
func (l *Logger) Header(message string) {
	if l.level >= LogLevelNormal {
		rule := strings.Repeat("=", 70)
		fmt.Fprintln(l.writer, l.header.Render(rule))
		fmt.Fprintln(l.writer, l.header.Render("  "+message))
		fmt.Fprintln(l.writer, l.header.Render(rule))
	}
}

// Step prints a numbered step in the run
func (l *Logger) Step(index, total int, message string) {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer, l.step.Render(fmt.Sprintf("[%d/%d] %s", index, total, message)))
	}
}

// StepDone reports how long a step took (verbose only)
func (l *Logger) StepDone(d time.Duration) {
	if l.level >= LogLevelVerbose {
		fmt.Fprintln(l.writer, l.muted.Render(fmt.Sprintf("  ✓ %s", d.Round(time.Millisecond))))
	}
}

// Successf prints a success message with checkmark
func (l *Logger) Successf(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer, l.success.Render("✓ "+fmt.Sprintf(format, args...)))
	}
}

// Infof prints an informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer, l.info.Render(fmt.Sprintf(format, args...)))
	}
}

// Warningf prints a warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	fmt.Fprintln(l.writer, l.warning.Render("⚠ Warning: "+fmt.Sprintf(format, args...)))
}

// Errorf prints an error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	fmt.Fprintln(l.writer, l.failure.Render("✗ Error: "+fmt.Sprintf(format, args...)))
}

// Verbosef prints detailed information (only in verbose mode)
func (l *Logger) Verbosef(format string, args ...interface{}) {
	if l.level >= LogLevelVerbose {
		fmt.Fprintln(l.writer, l.muted.Render("→ "+fmt.Sprintf(format, args...)))
	}
}

// Debugf prints debug information (only in debug mode)
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		fmt.Fprintln(l.writer, l.muted.Render("[DEBUG] "+fmt.Sprintf(format, args...)))
	}
}

// Summary prints the run summary block
func (l *Logger) Summary(report *Report) {
	if l.level < LogLevelNormal {
		return
	}

	rule := strings.Repeat("=", 70)
	fmt.Fprintln(l.writer)
	fmt.Fprintln(l.writer, l.header.Render(rule))
	fmt.Fprintln(l.writer, l.header.Render("  RUN SUMMARY"))
	fmt.Fprintln(l.writer, l.header.Render(rule))

	fmt.Fprint(l.writer, "  Status: ")
	if report.Status == statusPassed {
		fmt.Fprintln(l.writer, l.success.Render("✓ PASSED"))
	} else {
		fmt.Fprintln(l.writer, l.failure.Render("✗ FAILED"))
	}
	fmt.Fprintf(l.writer, "  Target: %s\n", report.BaseURL)
	fmt.Fprintf(l.writer, "  Duration: %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(l.writer, "  Steps: %d/%d passed\n", report.PassedSteps(), report.TotalSteps)

	if l.level >= LogLevelVerbose {
		for _, step := range report.Steps {
			mark := l.success.Render("✓")
			if !step.Passed {
				mark = l.failure.Render("✗")
			}
			fmt.Fprintf(l.writer, "    %s %s (%s)\n", mark, step.Name, step.Duration.Round(time.Millisecond))
		}
	}

	if report.Screenshot != "" {
		fmt.Fprintf(l.writer, "  Screenshot: %s\n", report.Screenshot)
	}
	if report.DOMSnapshot != "" {
		fmt.Fprintf(l.writer, "  DOM snapshot: %s\n", report.DOMSnapshot)
	}
	if report.Error != "" {
		fmt.Fprintln(l.writer, l.failure.Render("  Error Details:"))
		fmt.Fprintln(l.writer, l.failure.Render("    "+report.Error))
	}
	fmt.Fprintln(l.writer, l.header.Render(rule))
}
