// Package reporter renders conformance results and delivers them: the
// per-job Output sink, report files and console progress.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
)

// Reporter formats and outputs conformance results.
type Reporter interface {
	// ReportRun reports the results of one meter.
	ReportRun(result *engine.RunResult)

	// ReportSummary reports the results of every meter of a run.
	ReportSummary(results []*engine.RunResult)
}

// counts returns "2 errors, 1 warning, 5 info".
func counts(r *engine.RunResult) string {
	plural := func(n int, word string) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, word)
		}
		return fmt.Sprintf("%d %ss", n, word)
	}
	return fmt.Sprintf("%s, %s, %d info",
		plural(r.Count(engine.SeverityError), "error"),
		plural(r.Count(engine.SeverityWarning), "warning"),
		r.Count(engine.SeverityInfo))
}

// status is the verdict shown for a meter.
func status(s engine.Severity) string {
	switch s {
	case engine.SeverityError:
		return "FAIL"
	case engine.SeverityWarning:
		return "WARN"
	default:
		return "PASS"
	}
}

// TextReporter writes the plain text report, the same layout as
// results.txt.
type TextReporter struct {
	writer  io.Writer
	verbose bool
}

// NewTextReporter creates a new text reporter. Verbose output includes
// the expected and actual replies of failed comparisons and the details
// of info findings.
func NewTextReporter(w io.Writer, verbose bool) *TextReporter {
	return &TextReporter{writer: w, verbose: verbose}
}

// ReportRun reports one meter in text format.
func (r *TextReporter) ReportRun(result *engine.RunResult) {
	fmt.Fprintf(r.writer, "=== %s ===\n", result.Device)
	for _, line := range result.Header {
		fmt.Fprintf(r.writer, "%s\n", line)
	}
	fmt.Fprintf(r.writer, "\n[%s] %s (%s)\n", status(result.Severity()), result.Device, counts(result))

	sections := []struct {
		title    string
		severity engine.Severity
	}{
		{"Errors", engine.SeverityError},
		{"Warnings", engine.SeverityWarning},
		{"Info", engine.SeverityInfo},
	}
	for _, s := range sections {
		findings := result.Filter(s.severity)
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(r.writer, "\n%s:\n", s.title)
		for _, f := range findings {
			r.reportFinding(f)
		}
	}
}

func (r *TextReporter) reportFinding(f engine.Finding) {
	fmt.Fprintf(r.writer, "  - %s\n", f.Message)
	if f.Severity == engine.SeverityInfo && !r.verbose {
		return
	}
	for _, d := range f.Details {
		fmt.Fprintf(r.writer, "      %s\n", d)
	}
	if !r.verbose {
		return
	}
	if f.Expected != "" {
		fmt.Fprintf(r.writer, "      Expected:\n%s", indent(f.Expected, "        "))
	}
	if f.Actual != "" {
		fmt.Fprintf(r.writer, "      Actual:\n%s", indent(f.Actual, "        "))
	}
}

// ReportSummary reports every meter followed by the totals.
func (r *TextReporter) ReportSummary(results []*engine.RunResult) {
	var passed, warned, failed int
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(r.writer)
		}
		r.ReportRun(res)
		switch res.Severity() {
		case engine.SeverityError:
			failed++
		case engine.SeverityWarning:
			warned++
		default:
			passed++
		}
	}

	fmt.Fprintf(r.writer, "\n--- Summary ---\n")
	fmt.Fprintf(r.writer, "Meters:   %d\n", len(results))
	fmt.Fprintf(r.writer, "Passed:   %d\n", passed)
	fmt.Fprintf(r.writer, "Warnings: %d\n", warned)
	fmt.Fprintf(r.writer, "Failed:   %d\n", failed)
}

func indent(s, prefix string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// JSONReporter writes one JSON document per report.
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

func NewJSONReporter(w io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{writer: w, pretty: pretty}
}

// JSONRunResult is the JSON representation of one meter's results.
type JSONRunResult struct {
	Device    string           `json:"device"`
	Status    string           `json:"status"`
	Severity  engine.Severity  `json:"severity"`
	StartTime time.Time        `json:"start_time"`
	Duration  string           `json:"duration"`
	Header    []string         `json:"header"`
	Errors    int              `json:"errors"`
	Warnings  int              `json:"warnings"`
	Info      int              `json:"info"`
	Findings  []engine.Finding `json:"findings"`
}

// JSONSummary is the JSON representation of a whole run.
type JSONSummary struct {
	Meters int             `json:"meters"`
	Failed int             `json:"failed"`
	Runs   []JSONRunResult `json:"runs"`
}

// ReportRun reports one meter in JSON format.
func (r *JSONReporter) ReportRun(result *engine.RunResult) {
	r.writeJSON(runToJSON(result))
}

// ReportSummary reports every meter in one JSON document.
func (r *JSONReporter) ReportSummary(results []*engine.RunResult) {
	s := JSONSummary{Meters: len(results), Runs: make([]JSONRunResult, 0, len(results))}
	for _, res := range results {
		jr := runToJSON(res)
		if jr.Severity == engine.SeverityError {
			s.Failed++
		}
		s.Runs = append(s.Runs, jr)
	}
	r.writeJSON(s)
}

func runToJSON(result *engine.RunResult) JSONRunResult {
	sev := result.Severity()
	jr := JSONRunResult{
		Device:    result.Device,
		Status:    strings.ToLower(status(sev)),
		Severity:  sev,
		StartTime: result.StartTime,
		Duration:  result.Duration.Round(time.Millisecond).String(),
		Header:    result.Header,
		Errors:    result.Count(engine.SeverityError),
		Warnings:  result.Count(engine.SeverityWarning),
		Info:      result.Count(engine.SeverityInfo),
		Findings:  result.Findings,
	}
	if jr.Header == nil {
		jr.Header = []string{}
	}
	if jr.Findings == nil {
		jr.Findings = []engine.Finding{}
	}
	return jr
}

func (r *JSONReporter) writeJSON(v any) {
	enc := json.NewEncoder(r.writer)
	if r.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(r.writer, "{\"error\": %q}\n", "encode report: "+err.Error())
	}
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string { return xmlEscaper.Replace(s) }
