// Package device defines the meter collaborator the conformance engine
// drives: sessions, device profiles and the driver registry.
//
// Framing, association negotiation and ciphering are implemented by
// drivers. The engine only sees encoded messages and decoded replies.
package device

import (
	"context"

	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

// Credential is what the client presents when associating.
type Credential struct {
	Authentication cosem.Authentication
	Password       string
}

// Capabilities are the parameters negotiated with the meter.
type Capabilities struct {
	Interface              InterfaceType
	LogicalNameReferencing bool
	Authentication         cosem.Authentication
	Conformance            cosem.Conformance

	// MaxInfoRX and MaxInfoTX are the negotiated HDLC information field
	// lengths.
	MaxInfoRX int
	MaxInfoTX int

	// MaxReceivePDUSize is the PDU size the meter accepts.
	MaxReceivePDUSize int
}

// Reply is the decoded answer to one exchange.
type Reply struct {
	// Action is the reply PDU.
	Action *pdu.Action

	// Frames are the raw frames the reply arrived in.
	Frames [][]byte
}

// Session is one connection to a meter.
type Session interface {
	// Open opens the media (serial port or socket).
	Open(ctx context.Context) error

	// Close releases the association if any and closes the media.
	Close() error

	// Connect establishes an application association. A rejected
	// credential returns an error.
	Connect(ctx context.Context, cred Credential) error

	// Disconnect releases the association.
	Disconnect(ctx context.Context) error

	// Read reads one attribute.
	Read(ctx context.Context, d pdu.Descriptor) (cosem.Value, error)

	// Write writes one attribute.
	Write(ctx context.Context, d pdu.Descriptor, v cosem.Value) error

	// Encode turns a request into the messages to send.
	Encode(a *pdu.Action) ([][]byte, error)

	// Exchange sends messages and blocks until the reply is complete.
	Exchange(ctx context.Context, msgs [][]byte) (*Reply, error)

	// Capabilities returns the negotiated parameters.
	Capabilities() Capabilities

	// Objects reads the association view.
	Objects(ctx context.Context) ([]*cosem.Object, error)
}

// Transact encodes a request, exchanges it and checks the data-access
// result. A reply carrying a result other than success is returned as a
// *ProtocolError together with the reply.
func Transact(ctx context.Context, s Session, req *pdu.Action) (*Reply, error) {
	msgs, err := s.Encode(req)
	if err != nil {
		return nil, err
	}
	reply, err := s.Exchange(ctx, msgs)
	if err != nil {
		return nil, err
	}
	if reply == nil || reply.Action == nil {
		return reply, &ProtocolError{Message: "empty reply to " + req.Command.String()}
	}
	code, err := reply.Action.ResultCode()
	if err != nil {
		return reply, &ProtocolError{Message: err.Error()}
	}
	if code != cosem.ErrorCodeOk {
		return reply, &ProtocolError{Code: code}
	}
	return reply, nil
}
