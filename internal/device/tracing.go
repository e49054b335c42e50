package device

import (
	"context"
	"sync"
	"time"

	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/log"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

// TracingSession wraps a Session and records every exchange in a
// protocol trace. It also tracks received frames larger than the
// negotiated information field length.
type TracingSession struct {
	Session

	trace  log.Logger
	connID string
	device string
	jobID  string

	mu        sync.Mutex
	oversize  int
	connected bool
}

// NewTracingSession wraps s. connID and jobID identify the trace events.
func NewTracingSession(s Session, trace log.Logger, connID, device, jobID string) *TracingSession {
	if trace == nil {
		trace = log.NoopLogger{}
	}
	return &TracingSession{Session: s, trace: trace, connID: connID, device: device, jobID: jobID}
}

func (t *TracingSession) event(dir log.Direction, layer log.Layer, cat log.Category) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: t.connID,
		Direction:    dir,
		Layer:        layer,
		Category:     cat,
		Device:       t.device,
		JobID:        t.jobID,
	}
}

func (t *TracingSession) logError(layer log.Layer, err error, op string) {
	ev := t.event(log.DirectionIn, layer, log.CategoryError)
	ed := &log.ErrorEventData{Layer: layer, Message: err.Error(), Context: op}
	if code, ok := Code(err); ok {
		c := int(code)
		ed.Code = &c
	}
	ev.Error = ed
	t.trace.Log(ev)
}

func (t *TracingSession) logState(entity log.StateEntity, from, to, reason string) {
	ev := t.event(log.DirectionOut, log.LayerAssociation, log.CategoryState)
	ev.StateChange = &log.StateChangeEvent{Entity: entity, OldState: from, NewState: to, Reason: reason}
	t.trace.Log(ev)
}

// Open opens the media.
func (t *TracingSession) Open(ctx context.Context) error {
	if err := t.Session.Open(ctx); err != nil {
		t.logError(log.LayerFrame, err, "open")
		return err
	}
	t.logState(log.StateEntityMedia, "closed", "open", "")
	return nil
}

// Close closes the media.
func (t *TracingSession) Close() error {
	err := t.Session.Close()
	t.logState(log.StateEntityMedia, "open", "closed", "")
	return err
}

// Connect associates with the meter.
func (t *TracingSession) Connect(ctx context.Context, cred Credential) error {
	if err := t.Session.Connect(ctx, cred); err != nil {
		t.logError(log.LayerAssociation, err, "connect")
		t.logState(log.StateEntityAssociation, "released", "released", err.Error())
		return err
	}
	t.mu.Lock()
	t.connected = true
	t.mu.Unlock()
	t.logState(log.StateEntityAssociation, "released", "associated", cred.Authentication.String())
	return nil
}

// Disconnect releases the association.
func (t *TracingSession) Disconnect(ctx context.Context) error {
	err := t.Session.Disconnect(ctx)
	t.mu.Lock()
	t.connected = false
	t.mu.Unlock()
	if err != nil {
		t.logError(log.LayerAssociation, err, "disconnect")
	}
	t.logState(log.StateEntityAssociation, "associated", "released", "")
	return err
}

// Read reads one attribute and traces the request and result.
func (t *TracingSession) Read(ctx context.Context, d pdu.Descriptor) (cosem.Value, error) {
	t.logRequest(pdu.CommandGetRequest, d, "")
	v, err := t.Session.Read(ctx, d)
	if err != nil {
		t.logError(log.LayerAPDU, err, "read "+d.String())
		return v, err
	}
	t.logResponse(pdu.CommandGetResponse, cosem.ErrorCodeOk, "", 0)
	return v, nil
}

// Write writes one attribute and traces the request and result.
func (t *TracingSession) Write(ctx context.Context, d pdu.Descriptor, v cosem.Value) error {
	t.logRequest(pdu.CommandSetRequest, d, "")
	if err := t.Session.Write(ctx, d, v); err != nil {
		t.logError(log.LayerAPDU, err, "write "+d.String())
		return err
	}
	t.logResponse(pdu.CommandSetResponse, cosem.ErrorCodeOk, "", 0)
	return nil
}

// Encode encodes a request and traces the decoded PDU.
func (t *TracingSession) Encode(a *pdu.Action) ([][]byte, error) {
	msgs, err := t.Session.Encode(a)
	if err != nil {
		t.logError(log.LayerAPDU, err, "encode "+a.Command.String())
		return nil, err
	}
	d, _, _ := a.Descriptor()
	t.logRequest(a.Command, d, a.Node.XML())
	return msgs, nil
}

// Exchange sends the frames and traces both directions.
func (t *TracingSession) Exchange(ctx context.Context, msgs [][]byte) (*Reply, error) {
	for _, m := range msgs {
		ev := t.event(log.DirectionOut, log.LayerFrame, log.CategoryMessage)
		ev.Frame = log.NewFrameEvent(m)
		t.trace.Log(ev)
	}
	start := time.Now()

	reply, err := t.Session.Exchange(ctx, msgs)
	if err != nil {
		t.logError(log.LayerFrame, err, "exchange")
		if IsIOError(err) {
			t.logState(log.StateEntityMedia, "open", "lost", err.Error())
		}
		return reply, err
	}

	limit := t.Capabilities().MaxInfoRX
	for _, f := range reply.Frames {
		ev := t.event(log.DirectionIn, log.LayerFrame, log.CategoryMessage)
		ev.Frame = log.NewFrameEvent(f)
		t.trace.Log(ev)
		t.noteFrame(len(f), limit)
	}
	if reply.Action != nil {
		code, _ := reply.Action.ResultCode()
		t.logResponse(reply.Action.Command, code, reply.Action.Node.XML(), time.Since(start))
	}
	return reply, nil
}

func (t *TracingSession) noteFrame(size, limit int) {
	if limit <= 0 || size <= limit {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if size > t.oversize {
		t.oversize = size
	}
}

// OversizeFrame returns the largest received frame that exceeded the
// negotiated information field length, or 0.
func (t *TracingSession) OversizeFrame() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.oversize
}

// Connected reports whether the last Connect succeeded and was not
// followed by Disconnect.
func (t *TracingSession) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func category(c pdu.Command) log.Category {
	switch c {
	case pdu.CommandSnrm, pdu.CommandUa, pdu.CommandDisconnectRequest, pdu.CommandDisconnectMode:
		return log.CategoryControl
	}
	return log.CategoryMessage
}

func (t *TracingSession) logRequest(c pdu.Command, d pdu.Descriptor, xml string) {
	ev := t.event(log.DirectionOut, log.LayerAPDU, category(c))
	msg := &log.MessageEvent{Command: c.String(), XML: xml}
	if d.InstanceID != "" {
		classID := uint16(d.ClassID)
		index := d.Index
		msg.ClassID = &classID
		msg.LogicalName = d.InstanceID
		msg.Index = &index
		msg.IsMethod = d.IsMethod
	}
	ev.Message = msg
	t.trace.Log(ev)
}

func (t *TracingSession) logResponse(c pdu.Command, code cosem.ErrorCode, xml string, rtt time.Duration) {
	ev := t.event(log.DirectionIn, log.LayerAPDU, category(c))
	msg := &log.MessageEvent{Command: c.String(), Result: code.String(), XML: xml}
	if rtt > 0 {
		msg.RoundTrip = &rtt
	}
	ev.Message = msg
	t.trace.Log(ev)
}
