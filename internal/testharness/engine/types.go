// Package engine replays reference scripts against a meter and records
// every difference from the expected replies as a finding.
package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

// Severity orders findings. The zero value means no finding.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

var severityNames = []string{"none", "info", "warning", "error"}

// String returns the severity name.
func (s Severity) String() string {
	if s >= 0 && int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// MarshalText writes the severity name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a severity name.
func (s *Severity) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for i, n := range severityNames {
		if n == name {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", b)
}

// Finding is one observation made while testing a meter.
type Finding struct {
	Severity Severity `json:"severity"`

	// ObjectType, LogicalName and Index locate the attribute or method the
	// finding is about. They are empty for job level findings.
	ObjectType  cosem.ObjectType `json:"object_type,omitempty"`
	LogicalName string           `json:"logical_name,omitempty"`
	Index       int              `json:"index,omitempty"`
	Method      bool             `json:"method,omitempty"`

	Message string `json:"message"`

	// Expected and Actual are the serialized replies of a failed
	// comparison.
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`

	// Code is the data-access-result the meter reported, if any.
	Code *cosem.ErrorCode `json:"code,omitempty"`

	Details []string `json:"details,omitempty"`
}

// String returns "error: Clock 0.0.1.0.0.255 attribute 2 failed: ...".
func (f Finding) String() string {
	return f.Severity.String() + ": " + f.Message
}

// Info builds an info finding.
func Info(format string, args ...any) Finding {
	return Finding{Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)}
}

// Warning builds a warning finding.
func Warning(format string, args ...any) Finding {
	return Finding{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

// Error builds an error finding.
func Error(format string, args ...any) Finding {
	return Finding{Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

// At attaches the attribute or method reference of d to the finding.
func (f Finding) At(d pdu.Descriptor) Finding {
	f.ObjectType = d.ClassID
	f.LogicalName = d.InstanceID
	f.Index = d.Index
	f.Method = d.IsMethod
	return f
}

// Sink receives findings. Findings are append-only.
type Sink interface {
	Add(f Finding)
}

// RunResult collects the outcome of testing one meter.
type RunResult struct {
	// Device is the profile name.
	Device string `json:"device"`

	// Header lines describe the run (start time, negotiated services).
	Header []string `json:"header"`

	Findings []Finding `json:"findings"`

	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// Add appends a finding.
func (r *RunResult) Add(f Finding) {
	r.Findings = append(r.Findings, f)
}

// AddHeader appends header lines.
func (r *RunResult) AddHeader(lines ...string) {
	r.Header = append(r.Header, lines...)
}

// InsertHeader inserts a header line at position i, or appends it when i
// is past the end.
func (r *RunResult) InsertHeader(i int, line string) {
	if i < 0 || i >= len(r.Header) {
		r.Header = append(r.Header, line)
		return
	}
	r.Header = append(r.Header[:i+1], r.Header[i:]...)
	r.Header[i] = line
}

// Severity returns the highest severity among the findings, or
// SeverityNone when there are none.
func (r *RunResult) Severity() Severity {
	highest := SeverityNone
	for _, f := range r.Findings {
		if f.Severity > highest {
			highest = f.Severity
		}
	}
	return highest
}

// Count returns the number of findings with severity s.
func (r *RunResult) Count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// Filter returns the findings with severity s in the order they were
// added.
func (r *RunResult) Filter(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// ReplyState is the reply waiting to be compared and the request that
// produced it.
type ReplyState struct {
	Request pdu.Descriptor

	// HasDescriptor is false for requests that carry no descriptor (Snrm,
	// DisconnectRequest).
	HasDescriptor bool

	Reply *device.Reply
}

// Pending reports whether a reply is waiting to be compared.
func (s *ReplyState) Pending() bool {
	return s.Reply != nil && s.Reply.Action != nil
}

// Clear drops the pending reply and its request.
func (s *ReplyState) Clear() {
	*s = ReplyState{}
}

// Config configures the replayer.
type Config struct {
	// Delay is waited before every request.
	Delay time.Duration

	// ShowValues adds the decoded value of every matching reply to the
	// success notes.
	ShowValues bool

	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default replayer configuration.
func DefaultConfig() *Config {
	return &Config{}
}
