package pdu

import (
	"fmt"
	"io"
)

// ScriptRoot is the root element of script documents.
const ScriptRoot = "Messages"

// ParseScript reads a script document into its ordered actions. A
// response must directly follow a request.
func ParseScript(r io.Reader) ([]*Action, error) {
	root, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if root.Name != ScriptRoot {
		return nil, fmt.Errorf("root element is %s, want %s", root.Name, ScriptRoot)
	}

	actions := make([]*Action, 0, len(root.Children))
	prevRequest := false
	for i, child := range root.Children {
		a, err := NewAction(child)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
		if !a.IsRequest() && !prevRequest {
			return nil, fmt.Errorf("action %d: %s without a preceding request", i+1, a.Command)
		}
		if a.IsRequest() {
			if _, _, err := a.Descriptor(); err != nil {
				return nil, fmt.Errorf("action %d: %w", i+1, err)
			}
		}
		prevRequest = a.IsRequest()
		actions = append(actions, a)
	}
	return actions, nil
}

// MarshalScript renders actions as a script document.
func MarshalScript(actions []*Action) string {
	root := NewNode(ScriptRoot)
	for _, a := range actions {
		root.Add(a.Node)
	}
	return root.XML()
}
