package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// A trace file is a plain sequence of CBOR encoded events with integer
// keys. Timestamps keep nanoseconds so the request and reply of one
// exchange stay ordered.
var (
	traceEnc = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	})
	traceDec = mustDecMode(cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	m, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace encoder: %v", err))
	}
	return m
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	m, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("trace decoder: %v", err))
	}
	return m
}

// EncodeEvent encodes one event.
func EncodeEvent(e Event) ([]byte, error) {
	return traceEnc.Marshal(e)
}

// DecodeEvent decodes one event.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := traceDec.Unmarshal(data, &e)
	return e, err
}

// NewEncoder returns an encoder writing events to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return traceEnc.NewEncoder(w)
}

// NewDecoder returns a decoder reading events from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return traceDec.NewDecoder(r)
}
