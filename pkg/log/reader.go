package log

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects trace events. Zero fields match every event.
type Filter struct {
	ConnectionID string
	Device       string
	JobID        string

	// Command matches the PDU element name of message events.
	Command string

	Direction *Direction
	Layer     *Layer
	Category  *Category

	// TimeStart is inclusive, TimeEnd exclusive.
	TimeStart *time.Time
	TimeEnd   *time.Time
}

// Match reports whether e passes every set criterion.
func (f *Filter) Match(e Event) bool {
	switch {
	case f.ConnectionID != "" && e.ConnectionID != f.ConnectionID,
		f.Device != "" && e.Device != f.Device,
		f.JobID != "" && e.JobID != f.JobID,
		f.Command != "" && (e.Message == nil || e.Message.Command != f.Command),
		f.Direction != nil && e.Direction != *f.Direction,
		f.Layer != nil && e.Layer != *f.Layer,
		f.Category != nil && e.Category != *f.Category,
		f.TimeStart != nil && e.Timestamp.Before(*f.TimeStart),
		f.TimeEnd != nil && !e.Timestamp.Before(*f.TimeEnd):
		return false
	}
	return true
}

// Reader streams the events of a trace file.
type Reader struct {
	file   *os.File
	dec    *cbor.Decoder
	filter Filter
}

// NewReader opens a trace for reading every event.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens a trace for reading the events matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	return &Reader{file: f, dec: NewDecoder(bufio.NewReader(f)), filter: filter}, nil
}

// Next returns the next matching event. It returns io.EOF after the last
// event.
func (r *Reader) Next() (Event, error) {
	for {
		var e Event
		if err := r.dec.Decode(&e); err != nil {
			return Event{}, err
		}
		if r.filter.Match(e) {
			return e, nil
		}
	}
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.file.Close()
}
