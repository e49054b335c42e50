package device

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/cosem-conformance/conformance-go/pkg/cosem"
)

var (
	// ErrNotConnected is returned for requests outside an association.
	ErrNotConnected = errors.New("not connected")

	// ErrUnknownDriver is returned by Dial for unregistered drivers.
	ErrUnknownDriver = errors.New("unknown driver")

	// ErrAssociationRejected is returned by Connect when the meter refuses
	// the credential.
	ErrAssociationRejected = errors.New("association rejected")
)

// ProtocolError is a failure reported by the meter. Code is
// cosem.ErrorCodeOk when the meter sent no data-access-result.
type ProtocolError struct {
	Code    cosem.ErrorCode
	Message string
}

func (e *ProtocolError) Error() string {
	switch {
	case e.Code != cosem.ErrorCodeOk && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Code != cosem.ErrorCodeOk:
		return e.Code.String()
	case e.Message != "":
		return e.Message
	}
	return "protocol error"
}

// HasCode reports whether the meter sent a data-access-result.
func (e *ProtocolError) HasCode() bool {
	return e.Code != cosem.ErrorCodeOk
}

// ErrorCategory classifies exchange failures.
type ErrorCategory int

const (
	// ErrCatTransport means media or timing problems, or any failure not
	// reported by the meter.
	ErrCatTransport ErrorCategory = iota
	// ErrCatDevice means the meter answered with a data-access-result.
	ErrCatDevice
	// ErrCatProtocol means the meter answered with a protocol failure
	// that carries no result code.
	ErrCatProtocol
)

var categoryNames = map[ErrorCategory]string{
	ErrCatTransport: "transport",
	ErrCatDevice:    "device",
	ErrCatProtocol:  "protocol",
}

func (c ErrorCategory) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "unknown"
}

// ClassifiedError wraps an error with its category.
type ClassifiedError struct {
	Category ErrorCategory
	Err      error
}

func (e *ClassifiedError) Error() string { return e.Err.Error() }
func (e *ClassifiedError) Unwrap() error { return e.Err }

// Transport wraps an error as a transport error.
func Transport(err error) error {
	return &ClassifiedError{Category: ErrCatTransport, Err: err}
}

// Category classifies err. Explicitly classified errors keep their
// category; a *ProtocolError is a device or protocol failure depending on
// its code; everything else is a transport failure.
func Category(err error) ErrorCategory {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	var pe *ProtocolError
	if errors.As(err, &pe) {
		if pe.HasCode() {
			return ErrCatDevice
		}
		return ErrCatProtocol
	}
	return ErrCatTransport
}

// Code returns the data-access-result carried by err, if any.
func Code(err error) (cosem.ErrorCode, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) && pe.HasCode() {
		return pe.Code, true
	}
	return cosem.ErrorCodeOk, false
}

// ioFailures are message fragments of socket and serial errors that
// arrive without a typed cause.
var ioFailures = []string{"connection reset", "broken pipe", "connection refused", "deadline exceeded"}

// IsIOError reports whether err means the media itself failed, as opposed
// to the meter answering badly.
func IsIOError(err error) bool {
	var opErr *net.OpError
	switch {
	case err == nil:
		return false
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &opErr):
		return true
	}
	msg := err.Error()
	for _, f := range ioFailures {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
