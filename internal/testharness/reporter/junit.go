package reporter

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
)

// JUnitReporter writes JUnit XML for CI systems. Each finding becomes a
// test case and error findings become failures.
type JUnitReporter struct {
	writer io.Writer
}

func NewJUnitReporter(w io.Writer) *JUnitReporter {
	return &JUnitReporter{writer: w}
}

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	XMLName  xml.Name    `xml:"testsuite"`
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Skipped  int         `xml:"skipped,attr"`
	Time     string      `xml:"time,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",cdata"`
}

// ReportRun writes one meter as a testsuite document.
func (r *JUnitReporter) ReportRun(result *engine.RunResult) {
	r.write(toSuite(result))
}

// ReportSummary wraps every meter in a testsuites element.
func (r *JUnitReporter) ReportSummary(results []*engine.RunResult) {
	doc := junitSuites{Suites: make([]junitSuite, 0, len(results))}
	for _, res := range results {
		doc.Suites = append(doc.Suites, toSuite(res))
	}
	r.write(doc)
}

func (r *JUnitReporter) write(v any) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(r.writer, "<!-- encode report: %s -->\n", escapeXML(err.Error()))
		return
	}
	io.WriteString(r.writer, xml.Header)
	r.writer.Write(out)
	io.WriteString(r.writer, "\n")
}

func toSuite(result *engine.RunResult) junitSuite {
	suite := junitSuite{
		Name:     result.Device,
		Tests:    len(result.Findings),
		Failures: result.Count(engine.SeverityError),
		Time:     fmt.Sprintf("%.3f", result.Duration.Seconds()),
		Cases:    make([]junitCase, 0, len(result.Findings)),
	}
	for _, f := range result.Findings {
		tc := junitCase{Name: f.Message, Classname: result.Device, Time: "0.000"}
		if f.ObjectType != 0 {
			tc.Classname += "." + f.ObjectType.String()
		}
		switch f.Severity {
		case engine.SeverityError:
			tc.Failure = &junitFailure{Message: f.Message, Body: failureBody(f)}
		case engine.SeverityWarning:
			tc.SystemOut = "warning: " + f.Message
		}
		suite.Cases = append(suite.Cases, tc)
	}
	return suite
}

func failureBody(f engine.Finding) string {
	var b strings.Builder
	for _, d := range f.Details {
		b.WriteString(d + "\n")
	}
	if f.Expected != "" {
		b.WriteString("Expected:\n" + f.Expected + "\n")
	}
	if f.Actual != "" {
		b.WriteString("Actual:\n" + f.Actual + "\n")
	}
	return b.String()
}
