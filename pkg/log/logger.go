package log

// Logger receives trace events. Log is called on the exchange path: it
// must be safe for concurrent use and must not block.
type Logger interface {
	Log(e Event)
}

// NoopLogger drops every event.
type NoopLogger struct{}

// Log does nothing.
func (NoopLogger) Log(Event) {}

// MultiLogger fans events out, e.g. to a job's trace file and to the
// debug log.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger returns a logger forwarding to every non-nil logger.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Log forwards e in order.
func (m *MultiLogger) Log(e Event) {
	for _, l := range m.loggers {
		l.Log(e)
	}
}

var (
	_ Logger = NoopLogger{}
	_ Logger = (*MultiLogger)(nil)
)
