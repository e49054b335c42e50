package reporter

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
)

// ConsoleReporter prints one progress line per job. Lines are coloured
// by verdict when the writer is a terminal.
type ConsoleReporter struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time

	pass *color.Color
	warn *color.Color
	fail *color.Color
	info *color.Color
}

// NewConsoleReporter creates a console reporter writing to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	c := &ConsoleReporter{
		w:    w,
		now:  time.Now,
		pass: color.New(color.FgGreen, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		fail: color.New(color.FgRed, color.Bold),
		info: color.New(color.FgCyan),
	}
	if !isTerminal(w) {
		for _, col := range []*color.Color{c.pass, c.warn, c.fail, c.info} {
			col.DisableColor()
		}
	}
	return c
}

func isTerminal(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *ConsoleReporter) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "[%s] ", c.now().Format("15:04:05"))
	fmt.Fprintf(c.w, format, args...)
}

// JobStarted reports that a worker picked up the job for device.
func (c *ConsoleReporter) JobStarted(device string) {
	c.printf("%s %s\n", c.info.Sprint("START"), device)
}

// JobFinished reports the verdict of one job.
func (c *ConsoleReporter) JobFinished(result *engine.RunResult) {
	c.printf("%s %s (%s) in %s\n",
		c.verdict(result.Severity()),
		result.Device,
		counts(result),
		result.Duration.Round(time.Millisecond))
}

// Summary reports the totals of a run.
func (c *ConsoleReporter) Summary(results []*engine.RunResult) {
	var failed int
	for _, r := range results {
		if r.Severity() == engine.SeverityError {
			failed++
		}
	}
	if failed > 0 {
		c.printf("%s %d of %d meters failed\n", c.fail.Sprint("DONE"), failed, len(results))
		return
	}
	c.printf("%s %d meters tested\n", c.pass.Sprint("DONE"), len(results))
}

func (c *ConsoleReporter) verdict(s engine.Severity) string {
	text := status(s)
	switch s {
	case engine.SeverityError:
		return c.fail.Sprint(text)
	case engine.SeverityWarning:
		return c.warn.Sprint(text)
	default:
		return c.pass.Sprint(text)
	}
}
