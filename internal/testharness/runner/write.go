package runner

import (
	"context"
	"fmt"

	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/internal/testharness/engine"
	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

// writeTests writes every readable and writable attribute back with its
// current value and checks the meter kept it unchanged.
func writeTests(ctx context.Context, s device.Session, objects []*cosem.Object, sink engine.Sink) error {
	for _, o := range objects {
		count, ok := o.AttributeCount()
		if !ok {
			continue
		}
		for index := 1; index <= count; index++ {
			access := o.AttributeAccess(index)
			if !access.CanRead() || !access.CanWrite() {
				continue
			}
			if err := writeAttribute(ctx, s, o, index, sink); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeAttribute(ctx context.Context, s device.Session, o *cosem.Object, index int, sink engine.Sink) error {
	d := pdu.Descriptor{ClassID: o.ClassID, InstanceID: o.LogicalName, Index: index}
	subject := fmt.Sprintf("%s %s attribute %d", o.ClassID, o.LogicalName, index)

	expected, err := s.Read(ctx, d)
	if err != nil {
		if cancelled(err) {
			return err
		}
		sink.Add(failure(d, err, "Write %s failed. Reading the value failed.", subject))
		return nil
	}
	if err := s.Write(ctx, d, expected); err != nil {
		if cancelled(err) {
			return err
		}
		sink.Add(failure(d, err, "Write %s failed.", subject))
		return nil
	}
	actual, err := s.Read(ctx, d)
	if err != nil {
		if cancelled(err) {
			return err
		}
		sink.Add(failure(d, err, "Write %s failed. Reading the value back failed.", subject))
		return nil
	}

	if !expected.Equal(actual) {
		f := engine.Error("Write %s failed. The value changed.", subject).At(d)
		f.Expected = expected.String()
		f.Actual = actual.String()
		sink.Add(f)
		return nil
	}
	sink.Add(engine.Info("Write %s succeeded.", subject).At(d))
	return nil
}
