package pdu

import (
	"fmt"

	"github.com/cosem-conformance/conformance-go/pkg/cosem"
)

// DefaultInvokeID is the invoke-id-and-priority octet written into built
// PDUs.
const DefaultInvokeID = "C1"

func descriptorNode(d Descriptor) (*Node, error) {
	h, err := cosem.LogicalNameToHex(d.InstanceID)
	if err != nil {
		return nil, err
	}
	name, index := "AttributeDescriptor", "AttributeId"
	if d.IsMethod {
		name, index = "MethodDescriptor", "MethodId"
	}
	return NewNode(name).Add(
		NewValueNode("ClassId", fmt.Sprintf("%04X", uint16(d.ClassID))),
		NewValueNode("InstanceId", h),
		NewValueNode(index, fmt.Sprintf("%02X", d.Index)),
	), nil
}

func invokeID() *Node {
	return NewValueNode("InvokeIdAndPriority", DefaultInvokeID)
}

// NewGetRequest builds a get-request-normal.
func NewGetRequest(d Descriptor) (*Action, error) {
	desc, err := descriptorNode(d)
	if err != nil {
		return nil, err
	}
	n := NewNode("GetRequest").Add(NewNode("GetRequestNormal").Add(invokeID(), desc))
	return &Action{Command: CommandGetRequest, Node: n}, nil
}

// NewSetRequest builds a set-request-normal carrying v.
func NewSetRequest(d Descriptor, v cosem.Value) (*Action, error) {
	desc, err := descriptorNode(d)
	if err != nil {
		return nil, err
	}
	n := NewNode("SetRequest").Add(NewNode("SetRequestNormal").Add(
		invokeID(), desc, NewNode("Value").Add(EncodeValue(v)),
	))
	return &Action{Command: CommandSetRequest, Node: n}, nil
}

// NewMethodRequest builds an action-request-normal. A nil parameter
// omits the invocation parameters.
func NewMethodRequest(d Descriptor, param *cosem.Value) (*Action, error) {
	d.IsMethod = true
	desc, err := descriptorNode(d)
	if err != nil {
		return nil, err
	}
	body := NewNode("ActionRequestNormal").Add(invokeID(), desc)
	if param != nil {
		body.Add(NewNode("MethodInvocationParameters").Add(EncodeValue(*param)))
	}
	return &Action{Command: CommandMethodRequest, Node: NewNode("ActionRequest").Add(body)}, nil
}

// NewGetResponse builds a successful get-response-normal.
func NewGetResponse(v cosem.Value) *Action {
	n := NewNode("GetResponse").Add(NewNode("GetResponseNormal").Add(
		invokeID(), NewNode("Result").Add(NewNode("Data").Add(EncodeValue(v))),
	))
	return &Action{Command: CommandGetResponse, Node: n}
}

// NewGetResponseError builds a get-response-normal carrying a
// data-access-result.
func NewGetResponseError(code cosem.ErrorCode) *Action {
	n := NewNode("GetResponse").Add(NewNode("GetResponseNormal").Add(
		invokeID(), NewNode("Result").Add(NewValueNode("DataAccessError", code.String())),
	))
	return &Action{Command: CommandGetResponse, Node: n}
}

func resultText(code cosem.ErrorCode) string {
	if code == cosem.ErrorCodeOk {
		return "Success"
	}
	return code.String()
}

// NewSetResponse builds a set-response-normal.
func NewSetResponse(code cosem.ErrorCode) *Action {
	n := NewNode("SetResponse").Add(NewNode("SetResponseNormal").Add(
		invokeID(), NewValueNode("Result", resultText(code)),
	))
	return &Action{Command: CommandSetResponse, Node: n}
}

// NewMethodResponse builds an action-response-normal with optional return
// data.
func NewMethodResponse(code cosem.ErrorCode, ret *cosem.Value) *Action {
	body := NewNode("ActionResponseNormal").Add(invokeID(), NewValueNode("Result", resultText(code)))
	if ret != nil {
		body.Add(NewNode("ReturnParameters").Add(NewNode("Data").Add(EncodeValue(*ret))))
	}
	return &Action{Command: CommandMethodResponse, Node: NewNode("ActionResponse").Add(body)}
}

// NewControl builds a connection control PDU (Snrm, Ua, DisconnectRequest,
// DisconnectMode).
func NewControl(c Command) *Action {
	return &Action{Command: c, Node: NewNode(c.String())}
}
