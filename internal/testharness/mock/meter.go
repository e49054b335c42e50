// Package mock provides a simulated COSEM meter and the "sim" driver that
// serves it, for tests and dry runs without hardware.
package mock

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cosem-conformance/conformance-go/internal/device"
	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

// Profile options understood by the simulated meter.
const (
	// OptionAcceptAnyPassword makes the meter accept every credential.
	OptionAcceptAnyPassword = "accept_any_password"

	// OptionRejectAll makes the meter reject every association.
	OptionRejectAll = "reject_all"

	// OptionDLMSVersion overrides the version in the xDLMS context info.
	OptionDLMSVersion = "dlms_version"

	// OptionMechanismID overrides the reported authentication mechanism.
	OptionMechanismID = "mechanism_id"

	// OptionMaxInfoRX and OptionMaxInfoTX override the negotiated
	// information field lengths.
	OptionMaxInfoRX = "negotiated_max_info_rx"
	OptionMaxInfoTX = "negotiated_max_info_tx"

	// OptionPduSize overrides the negotiated PDU size.
	OptionPduSize = "negotiated_pdu_size"

	// OptionConformance lists the negotiated services, comma separated.
	OptionConformance = "conformance"

	// OptionOversizeFrames sends every reply in one frame regardless of
	// the information field length.
	OptionOversizeFrames = "oversize_frames"

	// OptionFailReads lists logical names whose reads fail with a
	// hardware fault, comma separated.
	OptionFailReads = "fail_reads"

	// OptionFirmware and OptionDeviceName answer the firmware version and
	// logical device name objects when the profile does not list them.
	OptionFirmware   = "firmware"
	OptionDeviceName = "logical_device_name"
)

// DefaultConformance is negotiated unless the profile overrides it.
var DefaultConformance = cosem.ConformanceGet | cosem.ConformanceSet |
	cosem.ConformanceAction | cosem.ConformanceSelectiveAccess

// Meter is a simulated COSEM meter holding the association view and
// attribute values of a profile.
type Meter struct {
	// Name is the profile name.
	Name string

	// Objects is the association view. Values are updated by writes.
	Objects []*cosem.Object

	// ReceivedMessages tracks requests received by the meter.
	ReceivedMessages []Message

	// Handlers are callbacks that override the default behaviour.
	Handlers MeterHandlers

	password       string
	authentication cosem.Authentication
	options        map[string]string
	caps           device.Capabilities

	mu sync.RWMutex
}

// Message is a request received by the meter.
type Message struct {
	// Command is the service requested.
	Command pdu.Command

	// Descriptor is the target attribute or method.
	Descriptor pdu.Descriptor

	// Payload is the written value or method parameter.
	Payload *cosem.Value
}

// MeterHandlers holds callbacks for meter operations. A nil callback
// uses the default behaviour.
type MeterHandlers struct {
	// OnConnect is called when a client associates.
	OnConnect func(cred device.Credential) error

	// OnRead is called when an attribute is read.
	OnRead func(d pdu.Descriptor) (cosem.Value, error)

	// OnWrite is called when an attribute is written.
	OnWrite func(d pdu.Descriptor, v cosem.Value) error

	// OnInvoke is called when a method is invoked.
	OnInvoke func(d pdu.Descriptor, param *cosem.Value) (*cosem.Value, error)
}

// NewMeter creates a simulated meter from a profile. The profile is
// copied.
func NewMeter(p *device.Profile) *Meter {
	p = p.Clone()
	m := &Meter{
		Name:           p.Name,
		Objects:        p.Objects,
		password:       p.Password,
		authentication: p.Authentication,
		options:        p.Options,
	}
	if m.options == nil {
		m.options = map[string]string{}
	}
	m.caps = device.Capabilities{
		Interface:              p.Interface,
		LogicalNameReferencing: p.LogicalNameReferencing(),
		Authentication:         p.Authentication,
		Conformance:            DefaultConformance,
		MaxInfoRX:              m.intOption(OptionMaxInfoRX, p.MaxInfoRX),
		MaxInfoTX:              m.intOption(OptionMaxInfoTX, p.MaxInfoTX),
		MaxReceivePDUSize:      m.intOption(OptionPduSize, p.PduSize),
	}
	if names := m.listOption(OptionConformance); len(names) > 0 {
		m.caps.Conformance, _ = cosem.ParseConformance(names)
	}
	return m
}

func (m *Meter) intOption(key string, def int) int {
	if s, ok := m.options[key]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return def
}

func (m *Meter) boolOption(key string) bool {
	b, _ := strconv.ParseBool(m.options[key])
	return b
}

func (m *Meter) listOption(key string) []string {
	var out []string
	for _, s := range strings.Split(m.options[key], ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Capabilities returns the parameters the meter negotiates.
func (m *Meter) Capabilities() device.Capabilities {
	return m.caps
}

// RecordMessage records a received request.
func (m *Meter) RecordMessage(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReceivedMessages = append(m.ReceivedMessages, msg)
}

// GetMessages returns all received requests.
func (m *Meter) GetMessages() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Message, len(m.ReceivedMessages))
	copy(result, m.ReceivedMessages)
	return result
}

// ClearMessages clears all received requests.
func (m *Meter) ClearMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReceivedMessages = m.ReceivedMessages[:0]
}

// find returns the object of the descriptor.
func (m *Meter) find(d pdu.Descriptor) *cosem.Object {
	for _, o := range m.Objects {
		if o.ClassID == d.ClassID && o.LogicalName == d.InstanceID {
			return o
		}
	}
	return nil
}

// HandleConnect checks a credential.
func (m *Meter) HandleConnect(ctx context.Context, cred device.Credential) error {
	if m.Handlers.OnConnect != nil {
		return m.Handlers.OnConnect(cred)
	}
	if m.boolOption(OptionRejectAll) {
		return device.ErrAssociationRejected
	}
	if m.boolOption(OptionAcceptAnyPassword) {
		return nil
	}
	if cred.Authentication != m.authentication {
		return fmt.Errorf("%w: authentication %s", device.ErrAssociationRejected, cred.Authentication)
	}
	if cred.Authentication != cosem.AuthenticationNone && cred.Password != m.password {
		return fmt.Errorf("%w: wrong password", device.ErrAssociationRejected)
	}
	return nil
}

// HandleRead processes a read request.
func (m *Meter) HandleRead(ctx context.Context, d pdu.Descriptor) (cosem.Value, error) {
	m.RecordMessage(Message{Command: pdu.CommandGetRequest, Descriptor: d})

	if m.Handlers.OnRead != nil {
		return m.Handlers.OnRead(d)
	}
	for _, ln := range m.listOption(OptionFailReads) {
		if ln == d.InstanceID {
			return cosem.Value{}, accessError(cosem.ErrorCodeHardwareFault)
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	o := m.find(d)
	if o == nil {
		return m.wellKnown(d)
	}
	if !o.AttributeAccess(d.Index).CanRead() {
		return cosem.Value{}, accessError(cosem.ErrorCodeReadWriteDenied)
	}
	if v, ok := o.Values[d.Index]; ok {
		return v.Clone(), nil
	}
	if d.Index == 1 {
		b, err := cosem.ParseLogicalName(o.LogicalName)
		if err != nil {
			return cosem.Value{}, accessError(cosem.ErrorCodeOtherReason)
		}
		return cosem.NewOctetString(b), nil
	}
	if o.ClassID == cosem.ObjectTypeAssociationLogicalName {
		if v, ok := m.association(d.Index); ok {
			return v, nil
		}
	}
	return cosem.Value{}, accessError(cosem.ErrorCodeUnavailableObject)
}

// wellKnown answers reads of objects missing from the association view.
func (m *Meter) wellKnown(d pdu.Descriptor) (cosem.Value, error) {
	if d.ClassID == cosem.ObjectTypeData && d.Index == 2 {
		switch d.InstanceID {
		case cosem.FirmwareVersion:
			if s, ok := m.options[OptionFirmware]; ok {
				return cosem.NewOctetString([]byte(s)), nil
			}
		case cosem.LogicalDeviceName:
			if s, ok := m.options[OptionDeviceName]; ok {
				return cosem.NewOctetString([]byte(s)), nil
			}
		}
	}
	return cosem.Value{}, accessError(cosem.ErrorCodeUndefinedObject)
}

// association synthesizes the xDLMS context info and the authentication
// mechanism name of the current association.
func (m *Meter) association(index int) (cosem.Value, bool) {
	switch index {
	case 5:
		return cosem.NewStructure(
			cosem.NewUint(cosem.TagUInt32, uint64(m.caps.Conformance)),
			cosem.NewUint(cosem.TagUInt16, uint64(m.caps.MaxReceivePDUSize)),
			cosem.NewUint(cosem.TagUInt16, uint64(m.caps.MaxReceivePDUSize)),
			cosem.NewUint(cosem.TagUInt8, uint64(m.intOption(OptionDLMSVersion, cosem.DLMSVersion))),
			cosem.NewInt(cosem.TagInt8, 0),
			cosem.NewOctetString(nil),
		), true
	case 6:
		id := m.intOption(OptionMechanismID, int(m.authentication))
		return cosem.NewOctetString(cosem.Authentication(id).MechanismName()), true
	}
	return cosem.Value{}, false
}

// HandleWrite processes a write request.
func (m *Meter) HandleWrite(ctx context.Context, d pdu.Descriptor, v cosem.Value) error {
	m.RecordMessage(Message{Command: pdu.CommandSetRequest, Descriptor: d, Payload: &v})

	if m.Handlers.OnWrite != nil {
		return m.Handlers.OnWrite(d, v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	o := m.find(d)
	if o == nil {
		return accessError(cosem.ErrorCodeUndefinedObject)
	}
	if !o.AttributeAccess(d.Index).CanWrite() {
		return accessError(cosem.ErrorCodeReadWriteDenied)
	}
	if o.Values == nil {
		o.Values = make(map[int]cosem.Value)
	}
	o.Values[d.Index] = v.Clone()
	return nil
}

// HandleInvoke processes a method invocation.
func (m *Meter) HandleInvoke(ctx context.Context, d pdu.Descriptor, param *cosem.Value) (*cosem.Value, error) {
	m.RecordMessage(Message{Command: pdu.CommandMethodRequest, Descriptor: d, Payload: param})

	if m.Handlers.OnInvoke != nil {
		return m.Handlers.OnInvoke(d, param)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	o := m.find(d)
	if o == nil {
		return nil, accessError(cosem.ErrorCodeUndefinedObject)
	}
	if o.MethodAccessOf(d.Index) == cosem.MethodNoAccess {
		return nil, accessError(cosem.ErrorCodeReadWriteDenied)
	}
	return nil, nil
}
