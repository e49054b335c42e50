package pdu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cosem-conformance/conformance-go/pkg/cosem"
)

// Descriptor addresses one attribute or method of one object.
type Descriptor struct {
	ClassID cosem.ObjectType

	// InstanceID is the logical name in dotted form.
	InstanceID string

	// Index is the attribute id, or the method id when IsMethod is set.
	Index    int
	IsMethod bool
}

// String returns "Register 1.0.1.8.0.255:2", methods use "#" instead of
// ":".
func (d Descriptor) String() string {
	sep := ":"
	if d.IsMethod {
		sep = "#"
	}
	return fmt.Sprintf("%s %s%s%d", d.ClassID, d.InstanceID, sep, d.Index)
}

// Action is one step of a script: a request to send or the response
// expected for the preceding request.
type Action struct {
	Command Command

	// Node is the command element, e.g. <GetRequest>.
	Node *Node
}

// NewAction wraps a command element.
func NewAction(node *Node) (*Action, error) {
	cmd, ok := CommandOf(node.Name)
	if !ok {
		return nil, fmt.Errorf("unknown command %q", node.Name)
	}
	return &Action{Command: cmd, Node: node}, nil
}

// IsRequest reports whether the action is sent to the device.
func (a *Action) IsRequest() bool {
	return a.Command.IsRequest()
}

// Clone returns a deep copy of the action.
func (a *Action) Clone() *Action {
	return &Action{Command: a.Command, Node: a.Node.Clone()}
}

// descriptorNode returns the AttributeDescriptor or MethodDescriptor
// element of a request.
func (a *Action) descriptorNode() (*Node, bool) {
	if n := a.Node.Find("AttributeDescriptor"); n != nil {
		return n, false
	}
	if n := a.Node.Find("MethodDescriptor"); n != nil {
		return n, true
	}
	return nil, false
}

// Descriptor extracts the target of a get, set or method request. ok is
// false for actions without a descriptor.
func (a *Action) Descriptor() (Descriptor, bool, error) {
	n, isMethod := a.descriptorNode()
	if n == nil {
		return Descriptor{}, false, nil
	}
	d := Descriptor{IsMethod: isMethod}

	classID, err := hexField(n, "ClassId", 16)
	if err != nil {
		return d, true, err
	}
	d.ClassID = cosem.ObjectType(classID)

	inst := n.Child("InstanceId")
	if inst == nil || strings.TrimSpace(inst.Value()) == "" {
		return d, true, fmt.Errorf("%s: missing InstanceId", a.Command)
	}
	if d.InstanceID, err = cosem.NormalizeLogicalName(inst.Value()); err != nil {
		return d, true, err
	}

	indexName := "AttributeId"
	if isMethod {
		indexName = "MethodId"
	}
	index, err := hexField(n, indexName, 8)
	if err != nil {
		return d, true, err
	}
	d.Index = int(index)
	return d, true, nil
}

// SetInstanceID rewrites the logical name of the request's descriptor.
func (a *Action) SetInstanceID(ln string) error {
	n, _ := a.descriptorNode()
	if n == nil {
		return fmt.Errorf("%s has no descriptor", a.Command)
	}
	if strings.TrimSpace(ln) == "" {
		return fmt.Errorf("%s: empty logical name", a.Command)
	}
	h, err := cosem.LogicalNameToHex(ln)
	if err != nil {
		return err
	}
	inst := n.Child("InstanceId")
	if inst == nil {
		inst = NewNode("InstanceId")
		n.Add(inst)
	}
	inst.SetAttr("Value", h)
	return nil
}

func hexField(n *Node, name string, bits int) (uint64, error) {
	c := n.Child(name)
	if c == nil {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(c.Value()), 16, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, c.Value(), err)
	}
	return v, nil
}

// Payload returns the data carried by the action: the value of a set
// request, the parameters of a method request, or the data of a response.
func (a *Action) Payload() (cosem.Value, bool, error) {
	var holder *Node
	switch a.Command {
	case CommandSetRequest:
		holder = a.Node.Find("Value")
	case CommandMethodRequest:
		holder = a.Node.Find("MethodInvocationParameters")
	case CommandGetResponse:
		holder = a.Node.Find("Data")
	case CommandMethodResponse:
		holder = a.Node.Find("ReturnParameters")
		if holder != nil {
			holder = holder.Child("Data")
		}
	}
	if holder == nil || len(holder.Children) == 0 {
		return cosem.Value{}, false, nil
	}
	v, err := DecodeValue(holder.Children[0])
	return v, true, err
}

// ResultCode returns the data-access-result of a response. Successful
// responses return cosem.ErrorCodeOk.
func (a *Action) ResultCode() (cosem.ErrorCode, error) {
	if e := a.Node.Find("DataAccessError"); e != nil {
		return parseErrorCode(e.Value())
	}
	if r := a.Node.Find("Result"); r != nil {
		if v, ok := r.Attr("Value"); ok {
			return parseErrorCode(v)
		}
		if inner := r.Child("Result"); inner != nil {
			return parseErrorCode(inner.Value())
		}
	}
	return cosem.ErrorCodeOk, nil
}

func parseErrorCode(s string) (cosem.ErrorCode, error) {
	if s == "" || s == "Success" {
		return cosem.ErrorCodeOk, nil
	}
	c, ok := cosem.ParseErrorCode(s)
	if !ok {
		return cosem.ErrorCodeOtherReason, fmt.Errorf("unknown result %q", s)
	}
	return c, nil
}
