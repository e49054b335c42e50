package log

import (
	"strings"
	"testing"
	"time"
)

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"direction in", DirectionIn.String(), "IN"},
		{"direction out", DirectionOut.String(), "OUT"},
		{"direction unknown", Direction(9).String(), "UNKNOWN"},
		{"layer frame", LayerFrame.String(), "FRAME"},
		{"layer apdu", LayerAPDU.String(), "APDU"},
		{"layer association", LayerAssociation.String(), "ASSOCIATION"},
		{"layer unknown", Layer(9).String(), "UNKNOWN"},
		{"category message", CategoryMessage.String(), "MESSAGE"},
		{"category control", CategoryControl.String(), "CONTROL"},
		{"category state", CategoryState.String(), "STATE"},
		{"category error", CategoryError.String(), "ERROR"},
		{"category unknown", Category(9).String(), "UNKNOWN"},
		{"entity media", StateEntityMedia.String(), "MEDIA"},
		{"entity association", StateEntityAssociation.String(), "ASSOCIATION"},
		{"entity unknown", StateEntity(9).String(), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	if d, ok := ParseDirection("in"); !ok || d != DirectionIn {
		t.Errorf("ParseDirection(in) = %v, %v", d, ok)
	}
	if d, ok := ParseDirection("OUT"); !ok || d != DirectionOut {
		t.Errorf("ParseDirection(OUT) = %v, %v", d, ok)
	}
	if _, ok := ParseDirection("sideways"); ok {
		t.Error("expected sideways to be rejected")
	}
}

func TestParseLayerAndCategory(t *testing.T) {
	for _, l := range []Layer{LayerFrame, LayerAPDU, LayerAssociation} {
		if got, ok := ParseLayer(strings.ToLower(l.String())); !ok || got != l {
			t.Errorf("ParseLayer(%s) = %v, %v", l, got, ok)
		}
	}
	for _, c := range []Category{CategoryMessage, CategoryControl, CategoryState, CategoryError} {
		if got, ok := ParseCategory(c.String()); !ok || got != c {
			t.Errorf("ParseCategory(%s) = %v, %v", c, got, ok)
		}
	}
	if _, ok := ParseLayer("UNKNOWN"); ok {
		t.Error("UNKNOWN accepted as a layer")
	}
	if _, ok := ParseCategory(""); ok {
		t.Error("empty category accepted")
	}
}

func TestEventRoundTrip(t *testing.T) {
	classID := uint16(8)
	index := 2
	code := 3
	rtt := 120 * time.Millisecond
	ts := time.Date(2026, 3, 15, 10, 30, 0, 123456789, time.UTC)

	tests := []struct {
		name  string
		event Event
	}{
		{
			name: "frame",
			event: Event{
				Timestamp: ts, ConnectionID: "c1", Direction: DirectionOut, Layer: LayerFrame,
				Category: CategoryMessage, Device: "meter-1", JobID: "j1",
				Frame: &FrameEvent{Size: 3, Data: []byte{0x7E, 0xA0, 0x7E}},
			},
		},
		{
			name: "message",
			event: Event{
				Timestamp: ts, ConnectionID: "c1", Direction: DirectionIn, Layer: LayerAPDU,
				Category: CategoryMessage,
				Message: &MessageEvent{
					Command: "GetResponse", ClassID: &classID, LogicalName: "0.0.1.0.0.255",
					Index: &index, Result: "Ok", XML: "<GetResponse />", RoundTrip: &rtt,
				},
			},
		},
		{
			name: "state",
			event: Event{
				Timestamp: ts, ConnectionID: "c1", Layer: LayerAssociation, Category: CategoryState,
				StateChange: &StateChangeEvent{Entity: StateEntityAssociation, OldState: "released", NewState: "associated"},
			},
		},
		{
			name: "error",
			event: Event{
				Timestamp: ts, ConnectionID: "c1", Layer: LayerAPDU, Category: CategoryError,
				Error: &ErrorEventData{Layer: LayerAPDU, Message: "read denied", Code: &code, Context: "get"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(tt.event)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}
			got, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}
			if !got.Timestamp.Equal(ts) {
				t.Errorf("Timestamp: got %v, want %v", got.Timestamp, ts)
			}
			if got.ConnectionID != tt.event.ConnectionID || got.Layer != tt.event.Layer ||
				got.Direction != tt.event.Direction || got.Category != tt.event.Category {
				t.Errorf("header mismatch: got %+v", got)
			}
			switch {
			case tt.event.Frame != nil:
				if got.Frame == nil || got.Frame.Size != 3 || len(got.Frame.Data) != 3 {
					t.Errorf("Frame: got %+v", got.Frame)
				}
				if got.Device != "meter-1" || got.JobID != "j1" {
					t.Errorf("identifiers: got %q %q", got.Device, got.JobID)
				}
			case tt.event.Message != nil:
				m := got.Message
				if m == nil || m.Command != "GetResponse" || m.ClassID == nil || *m.ClassID != 8 ||
					m.Index == nil || *m.Index != 2 || m.RoundTrip == nil || *m.RoundTrip != rtt {
					t.Errorf("Message: got %+v", m)
				}
			case tt.event.StateChange != nil:
				if got.StateChange == nil || got.StateChange.NewState != "associated" {
					t.Errorf("StateChange: got %+v", got.StateChange)
				}
			case tt.event.Error != nil:
				if got.Error == nil || got.Error.Code == nil || *got.Error.Code != 3 {
					t.Errorf("Error: got %+v", got.Error)
				}
			}
		})
	}
}

func TestDecodeEventInvalid(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xFF, 0x00}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}

func TestEventOmitsEmptyPayloads(t *testing.T) {
	data, err := EncodeEvent(Event{ConnectionID: "c"})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if got.Frame != nil || got.Message != nil || got.StateChange != nil || got.Error != nil {
		t.Errorf("expected no payload, got %+v", got)
	}
}
