package runner

import (
	"context"
	"errors"
	"time"

	"github.com/cosem-conformance/conformance-go/internal/device"
)

var errNoAttempts = errors.New("retry: at least one attempt is required")

// backoff retries an operation with exponentially growing waits.
type backoff struct {
	attempts int
	base     time.Duration

	// max caps a single wait. Zero means no cap.
	max time.Duration
}

// connectBackoff is used when associating with a meter.
var connectBackoff = backoff{attempts: 3, base: 500 * time.Millisecond, max: 2 * time.Second}

// delay returns the wait before retry n, counted from 0.
func (b backoff) delay(n int) time.Duration {
	d := b.base << uint(n)
	if b.max > 0 && (d <= 0 || d > b.max) {
		return b.max
	}
	return d
}

// retry calls fn until it succeeds or the attempts are used up. Only
// transport failures are retried; any other error and the end of ctx stop
// at once.
func (b backoff) retry(ctx context.Context, fn func() error) error {
	if b.attempts < 1 {
		return errNoAttempts
	}
	var err error
	for n := 0; n < b.attempts; n++ {
		if n > 0 {
			if serr := contextSleep(ctx, b.delay(n-1)); serr != nil {
				return serr
			}
		}
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
	}
	return err
}

// connect associates with the meter.
func connect(ctx context.Context, s device.Session, cred device.Credential) error {
	return connectBackoff.retry(ctx, func() error {
		return s.Connect(ctx, cred)
	})
}

// contextSleep waits for d or until ctx ends. A non-positive d only
// checks ctx.
func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
