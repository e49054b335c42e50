package loader

import (
	"log/slog"

	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

// Bind yields one BoundTest for every (definition, object) pair where the
// object is of the definition's class. Definitions without a matching
// object produce nothing.
func Bind(defs []*TestDefinition, objects []*cosem.Object) []*BoundTest {
	var out []*BoundTest
	for _, def := range defs {
		for _, obj := range objects {
			if obj.ClassID != def.ClassID {
				continue
			}
			actions, err := bindActions(def, obj.LogicalName)
			if err != nil {
				slog.Debug("object not bound", "script", def.Name, "object", obj.LogicalName, "error", err)
				continue
			}
			out = append(out, &BoundTest{Name: def.Name, Object: obj, Actions: actions})
		}
	}
	return out
}

// bindActions copies the definition's actions and points every request
// for the definition's class at ln.
func bindActions(def *TestDefinition, ln string) ([]*pdu.Action, error) {
	actions := make([]*pdu.Action, len(def.Actions))
	for i, a := range def.Actions {
		c := a.Clone()
		if c.IsRequest() {
			if d, ok, err := c.Descriptor(); ok && err == nil && d.ClassID == def.ClassID {
				if err := c.SetInstanceID(ln); err != nil {
					return nil, err
				}
			}
		}
		actions[i] = c
	}
	return actions, nil
}
