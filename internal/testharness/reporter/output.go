package reporter

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cosem-conformance/conformance-go/internal/filelock"
	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
)

// Format is a report file format.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatJUnit Format = "junit"
	FormatHTML  Format = "html"
)

// AllFormats lists every supported format.
var AllFormats = []Format{FormatText, FormatJSON, FormatJUnit, FormatHTML}

// FileName returns the report file name for the format.
func (f Format) FileName() string {
	switch f {
	case FormatJSON:
		return "results.json"
	case FormatJUnit:
		return "results.xml"
	case FormatHTML:
		return "results.html"
	default:
		return "results.txt"
	}
}

// ParseFormats parses a list of format names. Entries may themselves be
// comma separated.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			f := Format(part)
			switch f {
			case FormatText, FormatJSON, FormatJUnit, FormatHTML:
			default:
				return nil, fmt.Errorf("unknown report format %q", part)
			}
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out, nil
}

// Render renders one meter's results in format f.
func Render(f Format, result *engine.RunResult) ([]byte, error) {
	var buf bytes.Buffer
	var r Reporter
	switch f {
	case FormatText:
		r = NewTextReporter(&buf, true)
	case FormatJSON:
		r = NewJSONReporter(&buf, true)
	case FormatJUnit:
		r = NewJUnitReporter(&buf)
	case FormatHTML:
		r = NewHTMLReporter(&buf)
	default:
		return nil, fmt.Errorf("unknown report format %q", f)
	}
	r.ReportRun(result)
	return buf.Bytes(), nil
}

// Output is the result sink of one job. Findings and header lines are
// append-only until Finalize, which writes the report files and signals
// completion. It is safe for concurrent use.
type Output struct {
	mu      sync.Mutex
	result  engine.RunResult
	dir     string
	formats []Format

	once sync.Once
	done chan struct{}
	err  error
}

// NewOutput creates the sink for device. Reports are written below
// dir/device; an empty dir keeps the results in memory only.
func NewOutput(device, dir string, formats []Format) *Output {
	return &Output{
		result:  engine.RunResult{Device: device},
		dir:     dir,
		formats: formats,
		done:    make(chan struct{}),
	}
}

// Add appends a finding.
func (o *Output) Add(f engine.Finding) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.result.Add(f)
}

// AddHeader appends header lines.
func (o *Output) AddHeader(lines ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.result.AddHeader(lines...)
}

// InsertHeader inserts a header line at position i.
func (o *Output) InsertHeader(i int, line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.result.InsertHeader(i, line)
}

// SetTiming records when the job started and how long it ran.
func (o *Output) SetTiming(start time.Time, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.result.StartTime = start
	o.result.Duration = d
}

// Severity returns the highest severity recorded so far.
func (o *Output) Severity() engine.Severity {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result.Severity()
}

// Result returns a copy of the results recorded so far.
func (o *Output) Result() *engine.RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	r := o.result
	r.Header = append([]string(nil), o.result.Header...)
	r.Findings = append([]engine.Finding(nil), o.result.Findings...)
	return &r
}

// Dir returns the directory the reports of this job are written to, or
// "" when nothing is written.
func (o *Output) Dir() string {
	if o.dir == "" {
		return ""
	}
	return filepath.Join(o.dir, sanitize(o.result.Device))
}

// Finalize writes the report files and closes Done. Only the first call
// has an effect; later calls return the first call's error.
func (o *Output) Finalize(ctx context.Context) error {
	o.once.Do(func() {
		defer close(o.done)
		dir := o.Dir()
		if dir == "" || len(o.formats) == 0 {
			return
		}
		result := o.Result()
		files := make(map[string][]byte, len(o.formats))
		for _, f := range o.formats {
			data, err := Render(f, result)
			if err != nil {
				o.err = err
				return
			}
			files[f.FileName()] = data
		}
		if err := filelock.WriteFiles(ctx, dir, files); err != nil {
			o.err = fmt.Errorf("writing reports for %s: %w", result.Device, err)
		}
	})
	return o.err
}

// Done is closed once the job has been finalized.
func (o *Output) Done() <-chan struct{} {
	return o.done
}

// sanitize makes a device name usable as a directory name.
func sanitize(name string) string {
	if name == "" {
		return "device"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
