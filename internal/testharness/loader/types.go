// Package loader builds the catalog of reference scripts the conformance
// run replays: the builtin scripts shipped with the tool and external
// scripts from a directory.
package loader

import (
	"sort"
	"strconv"

	"github.com/cosem-conformance/conformance-go/pkg/cosem"
	"github.com/cosem-conformance/conformance-go/pkg/pdu"
)

// TestDefinition is a reference script for one interface class.
// Definitions are immutable once loaded; binding works on copies.
type TestDefinition struct {
	// Name is the script file name without extension (e.g. "cosem-clock").
	Name string

	// ClassID is the interface class the script targets, taken from its
	// first request.
	ClassID cosem.ObjectType

	// Actions alternate between requests and expected responses.
	Actions []*pdu.Action
}

// BoundTest is a definition rewritten for one device object.
type BoundTest struct {
	Name   string
	Object *cosem.Object

	// Actions are deep copies of the definition's actions with the
	// instance id of every matching request set to the object's logical
	// name.
	Actions []*pdu.Action
}

// ExternalScript is a user supplied script. It is not bound to an object
// and is replayed as written.
type ExternalScript struct {
	// Name is the file name.
	Name string

	// Path is the file the script was loaded from.
	Path string

	Actions []*pdu.Action
}

// Catalog holds the builtin definitions. It is read-only after load and
// shared by all workers.
type Catalog struct {
	Definitions []*TestDefinition
}

// ClassesCovered returns the interface classes that have a builtin
// definition, in ascending order.
func (c *Catalog) ClassesCovered() []cosem.ObjectType {
	seen := make(map[cosem.ObjectType]bool)
	var out []cosem.ObjectType
	for _, d := range c.Definitions {
		if !seen[d.ClassID] {
			seen[d.ClassID] = true
			out = append(out, d.ClassID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Covers reports whether a builtin definition targets the class.
func (c *Catalog) Covers(ot cosem.ObjectType) bool {
	for _, d := range c.Definitions {
		if d.ClassID == ot {
			return true
		}
	}
	return false
}

// Bind binds the catalog's definitions to the device objects.
func (c *Catalog) Bind(objects []*cosem.Object) []*BoundTest {
	return Bind(c.Definitions, objects)
}

// LoadError provides details about a script loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Line is the line number where the error occurred (0 if unknown).
	Line int

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Line > 0 {
		return e.File + ":" + strconv.Itoa(e.Line) + ": " + msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
