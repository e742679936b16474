// Package verify runs the address-book settings check.
//
// A Runner walks a fixed list of Steps against a Page (normally a
// *browser.Session): open the application, sign in, wait for the contact
// search box, open the settings modal, check the configuration tab, switch to
// the migration tab, check it, and capture a screenshot. The run stops at the
// first failing step.
//
// Failures are reported as *StepError values carrying a Kind
// (navigation, element_not_found, assertion, capture, setup) so callers can
// map them to distinct exit codes. On failure the runner captures an error
// screenshot and, when artifacts are enabled, a cleaned DOM snapshot.
//
// ArtifactWriter turns a Report into report.json, summary.md and a
// Prometheus textfile (metrics.prom).
package verify
