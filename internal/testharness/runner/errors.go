package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/cosem-conformance/conformance-go/internal/device"
)

// UnitError is the failure of one unit of a job: a bound script, an
// external script or one of the special checks.
type UnitError struct {
	Unit string

	// Panic is the recovered value when the unit panicked.
	Panic any

	Err error
}

func (e *UnitError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("%s panicked: %v", e.Unit, e.Panic)
	}
	return fmt.Sprintf("%s failed: %v", e.Unit, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// retryable reports whether a failed connection attempt may succeed when
// repeated. Only transport failures qualify; a rejected association is
// the meter's answer.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, device.ErrAssociationRejected) {
		return false
	}
	return device.Category(err) == device.ErrCatTransport
}

// cancelled reports whether err stems from the job context.
func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
