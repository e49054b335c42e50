// Package compare checks device replies against the replies a script
// expects.
//
// Both documents are normalized before comparison: the invoke id element
// is dropped since it changes between exchanges. In the expected document
// an attribute value of "*" matches any value and an element named Any
// matches any subtree.
package compare

import (
	"fmt"
	"strings"

	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

const (
	// Wildcard is the attribute value that matches anything.
	Wildcard = "*"

	// AnyElement is the element name that matches any subtree.
	AnyElement = "Any"
)

// ignoredElements are removed from both sides before comparison.
var ignoredElements = map[string]bool{
	"InvokeIdAndPriority":     true,
	"LongInvokeIdAndPriority": true,
}

// Discrepancy is one field that differs between the expected and the
// actual document.
type Discrepancy struct {
	// Path locates the field, e.g. "GetResponse/GetResponseNormal/Result/Data/UInt8@Value".
	Path string

	Expected string
	Actual   string
}

// String renders the discrepancy on one line.
func (d Discrepancy) String() string {
	return fmt.Sprintf("%s: expected %q, got %q", d.Path, d.Expected, d.Actual)
}

// Normalize returns a copy of n without ignored elements.
func Normalize(n *pdu.Node) *pdu.Node {
	if n == nil {
		return nil
	}
	c := &pdu.Node{Name: n.Name, Text: n.Text}
	if n.Attrs != nil {
		c.Attrs = append([]pdu.Attr(nil), n.Attrs...)
	}
	for _, ch := range n.Children {
		if ignoredElements[ch.Name] {
			continue
		}
		c.Children = append(c.Children, Normalize(ch))
	}
	return c
}

// Compare returns the ordered list of fields that differ. An empty result
// means the documents are structurally equivalent.
func Compare(expected, actual *pdu.Node) []Discrepancy {
	var out []Discrepancy
	compareNode(Normalize(expected), Normalize(actual), "", &out)
	return out
}

// CompareXML parses both documents and compares them.
func CompareXML(expected, actual string) ([]Discrepancy, error) {
	e, err := pdu.ParseString(expected)
	if err != nil {
		return nil, fmt.Errorf("expected document: %w", err)
	}
	a, err := pdu.ParseString(actual)
	if err != nil {
		return nil, fmt.Errorf("actual document: %w", err)
	}
	return Compare(e, a), nil
}

func compareNode(e, a *pdu.Node, parent string, out *[]Discrepancy) {
	switch {
	case e == nil && a == nil:
		return
	case e == nil:
		*out = append(*out, Discrepancy{Path: join(parent, a.Name), Expected: "", Actual: a.Name})
		return
	case a == nil:
		*out = append(*out, Discrepancy{Path: join(parent, e.Name), Expected: e.Name, Actual: ""})
		return
	}
	if e.Name == AnyElement {
		return
	}
	path := join(parent, e.Name)
	if e.Name != a.Name {
		*out = append(*out, Discrepancy{Path: path, Expected: e.Name, Actual: a.Name})
		return
	}

	for _, ea := range e.Attrs {
		av, ok := a.Attr(ea.Name)
		if ea.Value == Wildcard {
			continue
		}
		if !ok || ea.Value != av {
			*out = append(*out, Discrepancy{Path: path + "@" + ea.Name, Expected: ea.Value, Actual: av})
		}
	}
	for _, aa := range a.Attrs {
		if _, ok := e.Attr(aa.Name); !ok {
			*out = append(*out, Discrepancy{Path: path + "@" + aa.Name, Expected: "", Actual: aa.Value})
		}
	}
	if e.Text != a.Text && e.Text != Wildcard {
		*out = append(*out, Discrepancy{Path: path + "#text", Expected: e.Text, Actual: a.Text})
	}

	n := len(e.Children)
	if len(a.Children) > n {
		n = len(a.Children)
	}
	for i := 0; i < n; i++ {
		var ec, ac *pdu.Node
		if i < len(e.Children) {
			ec = e.Children[i]
		}
		if i < len(a.Children) {
			ac = a.Children[i]
		}
		compareNode(ec, ac, childPath(path, e, a, i), out)
	}
}

// childPath returns the parent path for child i. Children are addressed
// by position when the element holds more than one child.
func childPath(path string, e, a *pdu.Node, i int) string {
	if len(e.Children) > 1 || len(a.Children) > 1 {
		return fmt.Sprintf("%s[%d]", path, i)
	}
	return path
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// Format renders discrepancies one per line.
func Format(ds []Discrepancy) string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}
