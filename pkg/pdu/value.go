package pdu

import (
	"fmt"
	"strconv"

	"github.com/cosem-conformance/conformance-go/pkg/cosem"
)

// EncodeValue renders a data value as a typed element.
func EncodeValue(v cosem.Value) *Node {
	n := NewNode(v.Tag.String())
	switch {
	case v.Tag == cosem.TagNull:
	case v.Tag.IsComplex():
		n.SetAttr("Qty", fmt.Sprintf("%02X", len(v.Items)))
		for _, it := range v.Items {
			n.Add(EncodeValue(it))
		}
	default:
		n.SetAttr("Value", v.Text())
	}
	return n
}

// DecodeValue reads a typed element back into a data value.
func DecodeValue(n *Node) (cosem.Value, error) {
	tag, ok := cosem.ParseTag(n.Name)
	if !ok {
		return cosem.Value{}, fmt.Errorf("unknown data element %q", n.Name)
	}
	if tag.IsComplex() {
		v := cosem.Value{Tag: tag, Items: make([]cosem.Value, 0, len(n.Children))}
		for _, c := range n.Children {
			item, err := DecodeValue(c)
			if err != nil {
				return cosem.Value{}, err
			}
			v.Items = append(v.Items, item)
		}
		if qty, ok := n.Attr("Qty"); ok {
			want, err := strconv.ParseUint(qty, 16, 32)
			if err != nil {
				return cosem.Value{}, fmt.Errorf("invalid %s quantity %q: %w", n.Name, qty, err)
			}
			if int(want) != len(v.Items) {
				return cosem.Value{}, fmt.Errorf("%s declares %d items, has %d", n.Name, want, len(v.Items))
			}
		}
		return v, nil
	}
	text, ok := n.Attr("Value")
	if !ok {
		text = n.Text
	}
	return cosem.ParseValueText(tag, text)
}
