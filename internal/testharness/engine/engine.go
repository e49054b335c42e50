package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/internal/testharness/compare"
	"github.com/cosem-conformance/conformance-go/internal/testharness/loader"
	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

// Engine replays scripts against a session. It holds no per-run state and
// may be shared by workers.
type Engine struct {
	config *Config
	logger *slog.Logger
}

// New creates an engine with the default configuration.
func New() *Engine {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an engine with the given configuration.
func NewWithConfig(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{config: config, logger: logger}
}

// RunBound replays a builtin script bound to its object.
func (e *Engine) RunBound(ctx context.Context, s device.Session, t *loader.BoundTest, sink Sink) error {
	return e.Run(ctx, s, t.Object, t.Name, t.Actions, sink)
}

// RunExternal replays an external script as written.
func (e *Engine) RunExternal(ctx context.Context, s device.Session, script *loader.ExternalScript, sink Sink) error {
	return e.Run(ctx, s, nil, script.Name, script.Actions, sink)
}

// Run replays actions against target and reports to sink. A nil target
// replays the actions without object based skipping, as done for
// external scripts. Run only fails when ctx is cancelled; exchange
// failures become findings.
func (e *Engine) Run(ctx context.Context, s device.Session, target *cosem.Object, name string, actions []*pdu.Action, sink Sink) error {
	r := &replay{
		engine:  e,
		session: s,
		target:  target,
		name:    name,
		scope:   ScopeObject,
		sink:    sink,
		logger:  e.logger.With("script", name),
	}
	if target == nil {
		r.scope = ScopeExternal
	} else {
		r.logger = r.logger.With("object", target.String())
	}

	handshake := s.Capabilities().Interface.HasConnectHandshake()

loop:
	for _, a := range actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch {
		case a.Command == pdu.CommandSnrm && !handshake:
			continue
		case a.Command == pdu.CommandDisconnectRequest && !handshake:
			break loop
		case a.IsRequest():
			if err := e.wait(ctx); err != nil {
				return err
			}
			if !r.request(ctx, a) {
				break loop
			}
		default:
			r.response(a)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.summarize()
	return nil
}

// wait honours the configured delay between requests.
func (e *Engine) wait(ctx context.Context) error {
	if e.config.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(e.config.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// replay is the state of one Run.
type replay struct {
	engine  *Engine
	session device.Session
	target  *cosem.Object
	name    string
	scope   Scope
	sink    Sink
	logger  *slog.Logger

	state ReplyState
	notes []string

	// last is the most recent request descriptor.
	last    pdu.Descriptor
	hasLast bool
}

// request sends one request. It returns false when the rest of the
// script must not run.
func (r *replay) request(ctx context.Context, a *pdu.Action) bool {
	r.state.Clear()

	d, ok, err := a.Descriptor()
	if err != nil {
		r.sink.Add(Error("%s: %s: %v", r.name, a.Command, err))
		return true
	}
	if ok {
		r.last, r.hasLast = d, true
		if r.target != nil {
			if r.beyondVersion(d) {
				r.logger.Debug("index not implemented by class version, stopping", "target", d.String())
				return false
			}
			if !r.allowed(a.Command, d) {
				r.logger.Debug("no access, skipping", "target", d.String())
				return true
			}
		}
		if fixedSkip(d) {
			r.logger.Debug("not tested", "target", d.String())
			return true
		}
	}

	r.logger.Debug("request", "command", a.Command.String(), "target", d.String())
	reply, err := device.Transact(ctx, r.session, a)
	if err != nil {
		if ctx.Err() != nil {
			r.logger.Debug("request interrupted", "target", d.String(), "error", err)
			return true
		}
		r.failed(d, ok, err)
		return true
	}
	r.state = ReplyState{Request: d, HasDescriptor: ok, Reply: reply}
	return true
}

// beyondVersion reports whether the index is not implemented by the
// target's class version.
func (r *replay) beyondVersion(d pdu.Descriptor) bool {
	count, ok := r.target.AttributeCount()
	if d.IsMethod {
		count, ok = r.target.MethodCount()
	}
	return ok && d.Index > count
}

// allowed checks the access rights the association view grants.
func (r *replay) allowed(c pdu.Command, d pdu.Descriptor) bool {
	switch c {
	case pdu.CommandGetRequest:
		return r.target.AttributeAccess(d.Index).CanRead()
	case pdu.CommandSetRequest:
		return r.target.AttributeAccess(d.Index).CanWrite()
	case pdu.CommandMethodRequest:
		return r.target.MethodAccessOf(d.Index) != cosem.MethodNoAccess
	}
	return true
}

// fixedSkip reports attributes that are never read: the association
// object list and the profile buffer can be too large to transfer.
func fixedSkip(d pdu.Descriptor) bool {
	if d.IsMethod || d.Index != 2 {
		return false
	}
	return d.ClassID == cosem.ObjectTypeAssociationLogicalName || d.ClassID == cosem.ObjectTypeProfileGeneric
}

// subject names the request in messages.
func (r *replay) subject(d pdu.Descriptor, ok bool) string {
	if !ok {
		return r.name
	}
	kind := "attribute"
	if d.IsMethod {
		kind = "method"
	}
	return fmt.Sprintf("%s %s %s %d", d.ClassID, d.InstanceID, kind, d.Index)
}

// failed records a failed exchange according to the failure rules.
func (r *replay) failed(d pdu.Descriptor, ok bool, err error) {
	cat := device.Category(err)
	if FailureOutcome(r.scope, cat) == OutcomeSuppress {
		r.logger.Debug("failure suppressed", "target", d.String(), "category", cat.String(), "error", err)
		return
	}
	r.logger.Debug("request failed", "target", d.String(), "category", cat.String(), "error", err)

	f := Error("%s failed: %v", r.subject(d, ok), err)
	if ok {
		f = f.At(d)
	}
	if code, has := device.Code(err); has {
		f.Code = &code
	}
	r.sink.Add(f)
}

// verb names the service of a response.
func verb(c pdu.Command) string {
	switch c {
	case pdu.CommandGetResponse:
		return "Get"
	case pdu.CommandSetResponse:
		return "Set"
	case pdu.CommandMethodResponse:
		return "Action"
	}
	return c.String()
}

// response compares the pending reply with the expected one.
func (r *replay) response(expected *pdu.Action) {
	if !r.state.Pending() {
		return
	}
	defer r.state.Clear()

	d, ok := r.state.Request, r.state.HasDescriptor
	actual := r.state.Reply.Action

	diffs := compare.Compare(expected.Node, actual.Node)
	if len(diffs) > 0 {
		if ok && byteStringExempt(d, actual) {
			r.logger.Debug("octet string reply accepted", "target", d.String())
			return
		}
		if !ok {
			for _, diff := range diffs {
				r.sink.Add(Error("%s: %s", r.name, diff))
			}
			return
		}
		r.logger.Debug("reply differs", "target", d.String(), "diff", compare.Format(diffs))
		f := Error("%s %s %s %d is invalid", d.ClassID, d.InstanceID, verb(expected.Command), d.Index).At(d)
		f.Expected = expected.Node.XML()
		f.Actual = actual.Node.XML()
		for _, diff := range diffs {
			f.Details = append(f.Details, diff.String())
		}
		r.sink.Add(f)
		return
	}

	r.notes = append(r.notes, r.successNote(expected.Command, d, ok, actual))
}

// byteStringExempt accepts association attributes 4 and 6 sent as plain
// octet strings instead of object identifiers.
func byteStringExempt(d pdu.Descriptor, actual *pdu.Action) bool {
	if d.ClassID != cosem.ObjectTypeAssociationLogicalName || d.IsMethod || (d.Index != 4 && d.Index != 6) {
		return false
	}
	v, ok, err := actual.Payload()
	return ok && err == nil && v.Tag == cosem.TagOctetString
}

func (r *replay) successNote(c pdu.Command, d pdu.Descriptor, ok bool, actual *pdu.Action) string {
	note := verb(c)
	if ok {
		note = fmt.Sprintf("%s Index %d", note, d.Index)
	}
	if r.target == nil {
		return fmt.Sprintf("Test: %s %s", strings.TrimSuffix(r.name, filepath.Ext(r.name)), note)
	}

	v, has, err := actual.Payload()
	if !has || err != nil {
		return note
	}
	value := cosem.FormatValue(v, r.target.UIDataType(d.Index))
	r.logger.Debug("reply matched", "target", d.String(), "value", value)
	if !r.engine.config.ShowValues || !ok {
		return note
	}
	return fmt.Sprintf("%s:%s %s", note, r.memberName(d), value)
}

func (r *replay) memberName(d pdu.Descriptor) string {
	if !d.IsMethod {
		return r.target.AttributeName(d.Index)
	}
	if info, ok := r.target.Class(); ok {
		if n := info.MethodName(d.Index); n != "" {
			return n
		}
	}
	return fmt.Sprintf("#%d", d.Index)
}

// summarize reports every matching reply as one info finding.
func (r *replay) summarize() {
	if len(r.notes) == 0 {
		return
	}

	var ot cosem.ObjectType
	var ln, desc string
	switch {
	case r.target != nil:
		ot, ln, desc = r.target.ClassID, r.target.LogicalName, r.target.Description
	case r.hasLast:
		ot, ln = r.last.ClassID, r.last.InstanceID
	}
	if desc == "" && ln != "" {
		desc = cosem.DescribeLogicalName(ln)
	}

	parts := []string{}
	for _, p := range []string{ln, desc} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if ot != cosem.ObjectTypeNone {
		parts = append(parts, ot.String())
	}
	if len(parts) == 0 {
		parts = append(parts, r.name)
	}

	f := Info("%s.", strings.Join(parts, " "))
	f.ObjectType = ot
	f.LogicalName = ln
	f.Details = r.notes
	r.sink.Add(f)
}
