package log

import (
	"strings"
	"time"
)

// Event is one trace record. Exactly one of the payload pointers is set.
// Integer CBOR keys keep trace files small.
type Event struct {
	Timestamp    time.Time `cbor:"1,keyasint"`
	ConnectionID string    `cbor:"2,keyasint"`
	Direction    Direction `cbor:"3,keyasint"`
	Layer        Layer     `cbor:"4,keyasint"`
	Category     Category  `cbor:"5,keyasint"`

	// Device and JobID tie the event to a meter profile and a
	// conformance job.
	Device string `cbor:"6,keyasint,omitempty"`
	JobID  string `cbor:"7,keyasint,omitempty"`

	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction is seen from the test client.
type Direction uint8

const (
	DirectionIn  Direction = 0 // meter to client
	DirectionOut Direction = 1 // client to meter
)

// Layer is where an event was captured.
type Layer uint8

const (
	LayerFrame       Layer = 0 // HDLC or wrapper frames
	LayerAPDU        Layer = 1 // decoded xDLMS PDUs
	LayerAssociation Layer = 2 // media and application association
)

// Category classifies an event.
type Category uint8

const (
	CategoryMessage Category = 0 // get, set and action PDUs
	CategoryControl Category = 1 // SNRM, UA, AARQ, release
	CategoryState   Category = 2
	CategoryError   Category = 3
)

// StateEntity is what a StateChangeEvent refers to.
type StateEntity uint8

const (
	StateEntityMedia       StateEntity = 0 // serial port or socket
	StateEntityAssociation StateEntity = 1
)

var (
	directionNames = []string{"IN", "OUT"}
	layerNames     = []string{"FRAME", "APDU", "ASSOCIATION"}
	categoryNames  = []string{"MESSAGE", "CONTROL", "STATE", "ERROR"}
	entityNames    = []string{"MEDIA", "ASSOCIATION"}
)

func name(names []string, i uint8) string {
	if int(i) < len(names) {
		return names[i]
	}
	return "UNKNOWN"
}

func lookup(names []string, s string) (uint8, bool) {
	s = strings.ToUpper(s)
	for i, n := range names {
		if n == s {
			return uint8(i), true
		}
	}
	return 0, false
}

func (d Direction) String() string   { return name(directionNames, uint8(d)) }
func (l Layer) String() string       { return name(layerNames, uint8(l)) }
func (c Category) String() string    { return name(categoryNames, uint8(c)) }
func (s StateEntity) String() string { return name(entityNames, uint8(s)) }

// ParseDirection accepts "in" or "out" in any case.
func ParseDirection(s string) (Direction, bool) {
	v, ok := lookup(directionNames, s)
	return Direction(v), ok
}

// ParseLayer is the inverse of Layer.String, ignoring case.
func ParseLayer(s string) (Layer, bool) {
	v, ok := lookup(layerNames, s)
	return Layer(v), ok
}

// ParseCategory is the inverse of Category.String, ignoring case.
func ParseCategory(s string) (Category, bool) {
	v, ok := lookup(categoryNames, s)
	return Category(v), ok
}

// FrameEvent holds raw frame bytes. Data is cut short for large frames;
// Size is always the full length.
type FrameEvent struct {
	Size      int    `cbor:"1,keyasint"`
	Data      []byte `cbor:"2,keyasint,omitempty"`
	Truncated bool   `cbor:"3,keyasint,omitempty"`
}

// MessageEvent describes a decoded PDU. Request fields address the
// object; Result and RoundTrip are only set on replies.
type MessageEvent struct {
	Command     string  `cbor:"1,keyasint"` // PDU element name, e.g. GetRequest
	ClassID     *uint16 `cbor:"2,keyasint,omitempty"`
	LogicalName string  `cbor:"3,keyasint,omitempty"`
	Index       *int    `cbor:"4,keyasint,omitempty"`
	IsMethod    bool    `cbor:"5,keyasint,omitempty"`

	Result    string         `cbor:"6,keyasint,omitempty"`
	XML       string         `cbor:"7,keyasint,omitempty"`
	RoundTrip *time.Duration `cbor:"8,keyasint,omitempty"`
}

type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	OldState string      `cbor:"2,keyasint,omitempty"`
	NewState string      `cbor:"3,keyasint"`
	Reason   string      `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData records a failure. Code carries the data-access-result
// when the meter sent one; Context names the operation that failed.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`
	Code    *int   `cbor:"3,keyasint,omitempty"`
	Context string `cbor:"4,keyasint,omitempty"`
}
