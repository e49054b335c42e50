package reporter

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
)

// HTMLReporter renders results as a standalone HTML page. The report is
// built as Markdown and converted with goldmark.
type HTMLReporter struct {
	writer io.Writer
	md     goldmark.Markdown
}

// NewHTMLReporter creates a new HTML reporter.
func NewHTMLReporter(w io.Writer) *HTMLReporter {
	return &HTMLReporter{
		writer: w,
		md:     goldmark.New(),
	}
}

// ReportRun reports one meter as an HTML page.
func (r *HTMLReporter) ReportRun(result *engine.RunResult) {
	var src bytes.Buffer
	writeMarkdown(&src, result)
	r.page(result.Device, src.Bytes())
}

// ReportSummary reports every meter on one HTML page.
func (r *HTMLReporter) ReportSummary(results []*engine.RunResult) {
	var src bytes.Buffer
	src.WriteString("# Conformance results\n\n")
	src.WriteString("| Meter | Status | Findings |\n|---|---|---|\n")
	for _, res := range results {
		fmt.Fprintf(&src, "| %s | %s | %s |\n", mdEscape(res.Device), status(res.Severity()), counts(res))
	}
	for _, res := range results {
		src.WriteString("\n")
		writeMarkdown(&src, res)
	}
	r.page("Conformance results", src.Bytes())
}

func (r *HTMLReporter) page(title string, src []byte) {
	var body bytes.Buffer
	if err := r.md.Convert(src, &body); err != nil {
		fmt.Fprintf(r.writer, "<p>failed to render report: %s</p>\n", escapeXML(err.Error()))
		return
	}
	fmt.Fprintf(r.writer, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n", escapeXML(title))
	r.writer.Write(body.Bytes())
	fmt.Fprint(r.writer, "</body>\n</html>\n")
}

func writeMarkdown(b *bytes.Buffer, result *engine.RunResult) {
	fmt.Fprintf(b, "## %s\n\n", mdEscape(result.Device))
	fmt.Fprintf(b, "**%s**: %s\n\n", status(result.Severity()), counts(result))
	for _, line := range result.Header {
		fmt.Fprintf(b, "- %s\n", mdEscape(line))
	}
	if len(result.Header) > 0 {
		b.WriteString("\n")
	}

	if errs := result.Filter(engine.SeverityError); len(errs) > 0 {
		b.WriteString("### Errors\n\n")
		for i, f := range errs {
			fmt.Fprintf(b, "#### %d. %s\n\n", i+1, mdEscape(f.Message))
			for _, d := range f.Details {
				fmt.Fprintf(b, "- %s\n", mdEscape(d))
			}
			if len(f.Details) > 0 {
				b.WriteString("\n")
			}
			writeFence(b, "Expected", f.Expected)
			writeFence(b, "Actual", f.Actual)
		}
	}

	for _, s := range []struct {
		title    string
		severity engine.Severity
	}{
		{"Warnings", engine.SeverityWarning},
		{"Info", engine.SeverityInfo},
	} {
		findings := result.Filter(s.severity)
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n\n", s.title)
		for _, f := range findings {
			fmt.Fprintf(b, "- %s\n", mdEscape(f.Message))
			for _, d := range f.Details {
				fmt.Fprintf(b, "  - %s\n", mdEscape(d))
			}
		}
		b.WriteString("\n")
	}
}

func writeFence(b *bytes.Buffer, label, text string) {
	if text == "" {
		return
	}
	fence := "```"
	for strings.Contains(text, fence) {
		fence += "`"
	}
	fmt.Fprintf(b, "%s:\n\n%sxml\n%s\n%s\n\n", label, fence, strings.TrimRight(text, "\n"), fence)
}

var mdReplacer = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
	">", "&gt;",
	"#", `\#`,
	"|", `\|`,
)

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
