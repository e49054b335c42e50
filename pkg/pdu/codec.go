package pdu

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// EncodeNode encodes a document tree in its binary form.
func EncodeNode(n *Node) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("encode: nil node")
	}
	return encMode.Marshal(n)
}

// DecodeNode decodes the binary form of a document tree.
func DecodeNode(data []byte) (*Node, error) {
	var n Node
	if err := decMode.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}
	if n.Name == "" {
		return nil, fmt.Errorf("failed to decode node: missing element name")
	}
	return &n, nil
}
