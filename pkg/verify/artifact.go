package verify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/entrhq/addressbook-verify/pkg/config"
)

// ArtifactWriter handles writing run artifacts
type ArtifactWriter struct {
	outputDir string
	config    config.ArtifactConfig
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string, cfg config.ArtifactConfig) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
		config:    cfg,
	}
}

// WriteAll writes all configured artifact formats
func (w *ArtifactWriter) WriteAll(report *Report) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if w.config.JSON {
		if err := w.WriteReportJSON(report); err != nil {
			return err
		}
	}

	if w.config.Markdown {
		if err := w.WriteSummaryMarkdown(report); err != nil {
			return err
		}
	}

	if w.config.Metrics {
		if err := w.WriteMetrics(report); err != nil {
			return err
		}
	}

	return nil
}

// WriteReportJSON writes the full report as JSON
func (w *ArtifactWriter) WriteReportJSON(report *Report) error {
	path := filepath.Join(w.outputDir, "report.json")

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write report JSON: %w", writeErr)
	}

	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(report *Report) error {
	path := filepath.Join(w.outputDir, "summary.md")

	var md strings.Builder

	md.WriteString("# Settings Verification Summary\n\n")
	md.WriteString(fmt.Sprintf("**Target:** %s\n\n", report.BaseURL))
	md.WriteString(fmt.Sprintf("**Run:** %s\n\n", report.RunID))
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", report.Status))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", report.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", report.Duration.Round(time.Millisecond)))

	md.WriteString("## Result\n\n")
	if report.Error != "" {
		md.WriteString(fmt.Sprintf("❌ **%s:** %s\n\n", report.Kind, report.Error))
	} else {
		md.WriteString("✅ **Passed**\n\n")
	}

	md.WriteString("## Steps\n\n")
	md.WriteString("| # | Step | Action | Duration | Result |\n")
	md.WriteString("|---|------|--------|----------|--------|\n")
	for _, step := range report.Steps {
		result := "✅"
		if !step.Passed {
			result = "❌"
		}
		md.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			step.Index, step.Name, step.Action, step.Duration.Round(time.Millisecond), result))
	}
	if skipped := report.TotalSteps - len(report.Steps); skipped > 0 {
		md.WriteString(fmt.Sprintf("\n%d step(s) not run.\n", skipped))
	}
	md.WriteString("\n")

	if report.Screenshot != "" || report.DOMSnapshot != "" {
		md.WriteString("## Evidence\n\n")
		if report.Screenshot != "" {
			md.WriteString(fmt.Sprintf("- Screenshot: `%s`\n", report.Screenshot))
		}
		if report.DOMSnapshot != "" {
			md.WriteString(fmt.Sprintf("- DOM snapshot: `%s`\n", report.DOMSnapshot))
		}
	}

	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}

// WriteMetrics writes run metrics in the Prometheus text format, suitable
// for the node_exporter textfile collector.
func (w *ArtifactWriter) WriteMetrics(report *Report) error {
	path := filepath.Join(w.outputDir, "metrics.prom")

	reg := NewMetricsRegistry(report)
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}

	return nil
}

// NewMetricsRegistry builds a registry describing report.
func NewMetricsRegistry(report *Report) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "addressbook_verify_success",
		Help: "Whether the last settings verification passed (1) or failed (0).",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "addressbook_verify_duration_seconds",
		Help: "Wall time of the last settings verification.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "addressbook_verify_last_run_timestamp_seconds",
		Help: "Unix time the last settings verification finished.",
	})
	stepDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "addressbook_verify_step_duration_seconds",
		Help: "Wall time of each executed step.",
	}, []string{"step", "action"})
	failure := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "addressbook_verify_failure",
		Help: "Set to 1 for the kind of failure of the last run.",
	}, []string{"kind"})

	reg.MustRegister(success, duration, lastRun, stepDuration, failure)

	if report.Passed() {
		success.Set(1)
	}
	duration.Set(report.Duration.Seconds())
	lastRun.Set(float64(report.EndTime.Unix()))
	for _, step := range report.Steps {
		stepDuration.WithLabelValues(step.Name, string(step.Action)).Set(step.Duration.Seconds())
	}
	for _, kind := range []Kind{KindNavigation, KindElementNotFound, KindAssertion, KindCapture, KindSetup} {
		v := 0.0
		if report.Kind == kind {
			v = 1
		}
		failure.WithLabelValues(string(kind)).Set(v)
	}

	return reg
}
