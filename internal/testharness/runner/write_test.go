package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
	"github.com/cosem-conformance/conformance-go/internal/testharness/mock"
	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

func connectedMeter(t *testing.T, p *device.Profile) *mock.Session {
	t.Helper()
	s := mock.NewSession(mock.NewMeter(p))
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Connect(ctx, p.Credential()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteTestsSucceed(t *testing.T) {
	p := simProfile("write")
	s := connectedMeter(t, p)
	s.Meter().ClearMessages()

	var got findings
	require.NoError(t, writeTests(context.Background(), s, p.Objects, &got))

	require.Len(t, got, 1)
	assert.Equal(t, engine.SeverityInfo, got[0].Severity)
	assert.Equal(t, "Write Data 0.0.96.1.0.255 attribute 2 succeeded.", got[0].Message)

	messages := s.Meter().GetMessages()
	require.NotEmpty(t, messages)
	var writes int
	for _, m := range messages {
		if m.Command == pdu.CommandSetRequest {
			writes++
		}
	}
	assert.Equal(t, 1, writes)
	assert.NotEqual(t, pdu.CommandSetRequest, messages[0].Command, "value written before it was read")
}

func TestWriteTestsValueChanged(t *testing.T) {
	p := simProfile("drift")
	s := connectedMeter(t, p)
	s.Meter().Handlers.OnWrite = func(d pdu.Descriptor, v cosem.Value) error {
		s.Meter().Objects[0].Values[d.Index] = cosem.NewOctetString([]byte("00000000"))
		return nil
	}

	var got findings
	require.NoError(t, writeTests(context.Background(), s, p.Objects, &got))

	errs := got.of(engine.SeverityError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Write Data 0.0.96.1.0.255 attribute 2 failed. The value changed.", errs[0].Message)
	assert.NotEmpty(t, errs[0].Expected)
	assert.NotEqual(t, errs[0].Expected, errs[0].Actual)
}

func TestWriteTestsDenied(t *testing.T) {
	p := simProfile("denied")
	s := connectedMeter(t, p)
	s.Meter().Handlers.OnWrite = func(d pdu.Descriptor, v cosem.Value) error {
		return &device.ProtocolError{Code: cosem.ErrorCodeReadWriteDenied}
	}

	var got findings
	require.NoError(t, writeTests(context.Background(), s, p.Objects, &got))

	errs := got.of(engine.SeverityError)
	require.Len(t, errs, 1)
	require.NotNil(t, errs[0].Code)
	assert.Equal(t, cosem.ErrorCodeReadWriteDenied, *errs[0].Code)
	assert.Equal(t, cosem.ObjectTypeData, errs[0].ObjectType)
	assert.Equal(t, 2, errs[0].Index)
}

func TestWriteTestsSkipReadOnly(t *testing.T) {
	p := simProfile("readonly")
	p.Objects[0].Access[2] = cosem.AccessRead
	s := connectedMeter(t, p)

	var got findings
	require.NoError(t, writeTests(context.Background(), s, p.Objects, &got))
	assert.Empty(t, got)
}
