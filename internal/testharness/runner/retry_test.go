package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/pkg/cosem"
)

func TestBackoffDelay(t *testing.T) {
	b := backoff{attempts: 5, base: 100 * time.Millisecond, max: 350 * time.Millisecond}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 350 * time.Millisecond, 350 * time.Millisecond}
	for n, w := range want {
		if got := b.delay(n); got != w {
			t.Errorf("delay(%d) = %v, want %v", n, got, w)
		}
	}

	uncapped := backoff{attempts: 3, base: time.Second}
	assert.Equal(t, 8*time.Second, uncapped.delay(3))
	assert.Equal(t, 2*time.Second, backoff{base: time.Second, max: 2 * time.Second}.delay(200))
}

func TestBackoffRetry(t *testing.T) {
	transient := errors.New("timeout")
	rejected := device.ErrAssociationRejected
	denied := &device.ProtocolError{Code: cosem.ErrorCodeReadWriteDenied}
	malformed := &device.ProtocolError{Message: "malformed reply"}

	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{"first attempt", nil, 1, nil},
		{"after transient failures", []error{transient, transient}, 3, nil},
		{"attempts used up", []error{transient, transient, transient, transient}, 3, transient},
		{"association rejected", []error{rejected}, 1, rejected},
		{"device error", []error{denied}, 1, denied},
		{"protocol error", []error{malformed}, 1, malformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			b := backoff{attempts: 3, base: time.Millisecond}
			err := b.retry(context.Background(), func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestBackoffRetryNoAttempts(t *testing.T) {
	err := backoff{}.retry(context.Background(), func() error {
		t.Fatal("fn called without attempts")
		return nil
	})
	assert.ErrorIs(t, err, errNoAttempts)
}

func TestBackoffRetryCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	calls := 0
	err := backoff{attempts: 10, base: time.Second}.retry(ctx, func() error {
		calls++
		cancel()
		return errors.New("timeout")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestBackoffRetryWaits(t *testing.T) {
	var stamps []time.Time
	err := backoff{attempts: 3, base: 20 * time.Millisecond}.retry(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 3 {
			return errors.New("timeout")
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}

func TestContextSleep(t *testing.T) {
	assert.NoError(t, contextSleep(context.Background(), 0))
	assert.NoError(t, contextSleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, contextSleep(ctx, 0), context.Canceled)
	assert.ErrorIs(t, contextSleep(ctx, time.Hour), context.Canceled)
}
