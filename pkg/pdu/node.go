package pdu

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Attr is one XML attribute of a node.
type Attr struct {
	Name  string `cbor:"1,keyasint"`
	Value string `cbor:"2,keyasint"`
}

// Node is an element of a PDU document. Attributes keep document order.
type Node struct {
	Name     string  `cbor:"1,keyasint"`
	Attrs    []Attr  `cbor:"2,keyasint,omitempty"`
	Children []*Node `cbor:"3,keyasint,omitempty"`

	// Text is non-whitespace character data, trimmed.
	Text string `cbor:"4,keyasint,omitempty"`
}

// NewNode creates a node with the given name.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// NewValueNode creates <name Value="value" />.
func NewValueNode(name, value string) *Node {
	return &Node{Name: name, Attrs: []Attr{{Name: "Value", Value: value}}}
}

// Add appends children and returns n.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// SetAttr sets or adds an attribute.
func (n *Node) SetAttr(name, value string) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return n
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
	return n
}

// Attr returns the value of an attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Value returns the Value attribute, or an empty string.
func (n *Node) Value() string {
	v, _ := n.Attr("Value")
	return v
}

// Child returns the first direct child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find returns the first node named name in depth-first order, n included.
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// Clone returns a deep copy of the tree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Name: n.Name, Text: n.Text}
	if n.Attrs != nil {
		c.Attrs = append([]Attr(nil), n.Attrs...)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// ErrEmptyDocument is returned when a document holds no root element.
var ErrEmptyDocument = errors.New("empty document")

// Parse reads one XML document. Comments, processing instructions and
// whitespace-only text are dropped.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var stack []*Node
	var root *Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Name: t.Name.Local}
			for _, a := range t.Attr {
				node.Attrs = append(node.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("xml: multiple root elements (%s after %s)", node.Name, root.Name)
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			if s := strings.TrimSpace(string(t)); s != "" {
				cur := stack[len(stack)-1]
				cur.Text += s
			}
		}
	}

	if root == nil {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

// ParseString parses a document held in a string.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

// XML renders the tree with two-space indentation. Elements without
// children or text are self-closing.
func (n *Node) XML() string {
	var sb strings.Builder
	n.write(&sb, 0)
	return sb.String()
}

// String is XML.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	return n.XML()
}

func (n *Node) write(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	sb.WriteString(indent)
	sb.WriteByte('<')
	sb.WriteString(n.Name)
	for _, a := range n.Attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		_ = xml.EscapeText(sb, []byte(a.Value))
		sb.WriteByte('"')
	}
	switch {
	case len(n.Children) == 0 && n.Text == "":
		sb.WriteString(" />\n")
	case len(n.Children) == 0:
		sb.WriteByte('>')
		_ = xml.EscapeText(sb, []byte(n.Text))
		sb.WriteString("</" + n.Name + ">\n")
	default:
		sb.WriteString(">\n")
		if n.Text != "" {
			sb.WriteString(indent + "  ")
			_ = xml.EscapeText(sb, []byte(n.Text))
			sb.WriteByte('\n')
		}
		for _, c := range n.Children {
			c.write(sb, depth+1)
		}
		sb.WriteString(indent + "</" + n.Name + ">\n")
	}
}
