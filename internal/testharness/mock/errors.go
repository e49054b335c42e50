package mock

import (
	"errors"

	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/pkg/cosem"
)

// Mock package errors.
var (
	// ErrNotOpen is returned when using a session whose media is closed.
	ErrNotOpen = errors.New("media not open")

	// ErrUnsupportedCommand is returned for PDUs the meter does not serve.
	ErrUnsupportedCommand = errors.New("unsupported command")
)

// accessError builds the data-access-result the meter answers with.
func accessError(code cosem.ErrorCode) error {
	return &device.ProtocolError{Code: code}
}
