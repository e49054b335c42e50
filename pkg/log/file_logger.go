package log

import (
	"bufio"
	"errors"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends events to a trace file. Writes are buffered until
// Flush or Close. The first write error stops the logger; Err returns it.
type FileLogger struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	buf    *bufio.Writer
	enc    *cbor.Encoder
	events int
	err    error
	closed bool
}

// NewFileLogger opens path for appending, creating it if needed. The
// directory must exist.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(f)
	return &FileLogger{path: path, file: f, buf: buf, enc: NewEncoder(buf)}, nil
}

// Log appends e. It never blocks on anything but the file.
func (l *FileLogger) Log(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.err != nil {
		return
	}
	if err := l.enc.Encode(e); err != nil {
		l.err = err
		return
	}
	l.events++
}

// Path returns the trace file.
func (l *FileLogger) Path() string { return l.path }

// Events returns the number of events written.
func (l *FileLogger) Events() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events
}

// Err returns the write error that stopped the logger, if any.
func (l *FileLogger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Flush writes buffered events to the file.
func (l *FileLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	return l.buf.Flush()
}

// Close flushes and closes the file. Later calls and later events are
// ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return errors.Join(l.buf.Flush(), l.file.Close())
}

var _ Logger = (*FileLogger)(nil)
