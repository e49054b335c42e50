package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

// DriverName is the driver name the simulated meter registers under.
const DriverName = "sim"

func init() {
	device.Register(DriverName, Dial)
}

// Dial creates a session to a new simulated meter built from p.
func Dial(ctx context.Context, p *device.Profile) (device.Session, error) {
	return NewSession(NewMeter(p)), nil
}

// Session is a client session to a simulated meter. Requests travel as
// CBOR encoded PDU documents, split into frames of the negotiated
// information field length.
type Session struct {
	meter *Meter

	mu        sync.Mutex
	open      bool
	connected bool
	cred      device.Credential
}

// NewSession creates a session to m.
func NewSession(m *Meter) *Session {
	return &Session{meter: m}
}

// Meter returns the simulated meter.
func (s *Session) Meter() *Meter {
	return s.meter
}

// Open opens the simulated media.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	return nil
}

// Close releases the association and closes the media.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.connected = false
	return nil
}

// Connect associates with the meter.
func (s *Session) Connect(ctx context.Context, cred device.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return device.Transport(ErrNotOpen)
	}
	if err := s.meter.HandleConnect(ctx, cred); err != nil {
		s.connected = false
		return err
	}
	s.connected = true
	s.cred = cred
	return nil
}

// Disconnect releases the association.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *Session) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return device.Transport(ErrNotOpen)
	}
	if !s.connected {
		return device.ErrNotConnected
	}
	return nil
}

// Read reads one attribute.
func (s *Session) Read(ctx context.Context, d pdu.Descriptor) (cosem.Value, error) {
	if err := s.ready(); err != nil {
		return cosem.Value{}, err
	}
	return s.meter.HandleRead(ctx, d)
}

// Write writes one attribute.
func (s *Session) Write(ctx context.Context, d pdu.Descriptor, v cosem.Value) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.meter.HandleWrite(ctx, d, v)
}

// Encode encodes a request as one CBOR message.
func (s *Session) Encode(a *pdu.Action) ([][]byte, error) {
	data, err := pdu.EncodeNode(a.Node)
	if err != nil {
		return nil, err
	}
	return [][]byte{data}, nil
}

// Exchange decodes the request, lets the meter serve it and returns the
// framed reply.
func (s *Session) Exchange(ctx context.Context, msgs [][]byte) (*device.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(msgs) != 1 {
		return nil, device.Transport(fmt.Errorf("expected one message, got %d", len(msgs)))
	}
	node, err := pdu.DecodeNode(msgs[0])
	if err != nil {
		return nil, device.Transport(err)
	}
	req, err := pdu.NewAction(node)
	if err != nil {
		return nil, device.Transport(err)
	}

	resp, err := s.serve(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := pdu.EncodeNode(resp.Node)
	if err != nil {
		return nil, device.Transport(err)
	}
	return &device.Reply{Action: resp, Frames: s.frames(data)}, nil
}

// serve answers one request. Data-access-results travel in the reply;
// other failures are returned.
func (s *Session) serve(ctx context.Context, req *pdu.Action) (*pdu.Action, error) {
	switch req.Command {
	case pdu.CommandSnrm:
		if err := s.requireOpen(); err != nil {
			return nil, err
		}
		return pdu.NewControl(pdu.CommandUa), nil
	case pdu.CommandDisconnectRequest:
		if err := s.Disconnect(ctx); err != nil {
			return nil, err
		}
		return pdu.NewControl(pdu.CommandDisconnectMode), nil
	}

	if err := s.ready(); err != nil {
		return nil, err
	}
	d, ok, err := req.Descriptor()
	if err != nil {
		return nil, device.Transport(err)
	}
	if !ok {
		return nil, device.Transport(fmt.Errorf("%w: %s", ErrUnsupportedCommand, req.Command))
	}

	switch req.Command {
	case pdu.CommandGetRequest:
		v, err := s.meter.HandleRead(ctx, d)
		if code, ok := device.Code(err); ok {
			return pdu.NewGetResponseError(code), nil
		}
		if err != nil {
			return nil, err
		}
		return pdu.NewGetResponse(v), nil

	case pdu.CommandSetRequest:
		v, ok, err := req.Payload()
		if err != nil || !ok {
			return pdu.NewSetResponse(cosem.ErrorCodeTypeUnmatched), nil
		}
		err = s.meter.HandleWrite(ctx, d, v)
		if code, ok := device.Code(err); ok {
			return pdu.NewSetResponse(code), nil
		}
		if err != nil {
			return nil, err
		}
		return pdu.NewSetResponse(cosem.ErrorCodeOk), nil

	case pdu.CommandMethodRequest:
		var param *cosem.Value
		if v, ok, err := req.Payload(); err == nil && ok {
			param = &v
		}
		ret, err := s.meter.HandleInvoke(ctx, d, param)
		if code, ok := device.Code(err); ok {
			return pdu.NewMethodResponse(code, nil), nil
		}
		if err != nil {
			return nil, err
		}
		return pdu.NewMethodResponse(cosem.ErrorCodeOk, ret), nil
	}
	return nil, device.Transport(fmt.Errorf("%w: %s", ErrUnsupportedCommand, req.Command))
}

func (s *Session) requireOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return device.Transport(ErrNotOpen)
	}
	return nil
}

// frames splits a reply into information fields of the negotiated size.
func (s *Session) frames(data []byte) [][]byte {
	limit := s.meter.caps.MaxInfoRX
	if limit <= 0 || s.meter.boolOption(OptionOversizeFrames) {
		return [][]byte{data}
	}
	var out [][]byte
	for len(data) > limit {
		out = append(out, data[:limit])
		data = data[limit:]
	}
	return append(out, data)
}

// Capabilities returns the negotiated parameters.
func (s *Session) Capabilities() device.Capabilities {
	caps := s.meter.Capabilities()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		caps.Authentication = s.cred.Authentication
	}
	return caps
}

// Objects returns the meter's association view.
func (s *Session) Objects(ctx context.Context) ([]*cosem.Object, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.meter.mu.RLock()
	defer s.meter.mu.RUnlock()
	out := make([]*cosem.Object, len(s.meter.Objects))
	for i, o := range s.meter.Objects {
		out[i] = o.Clone()
	}
	return out, nil
}

var _ device.Session = (*Session)(nil)
