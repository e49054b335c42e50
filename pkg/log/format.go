package log

import (
	"fmt"
	"strings"
	"time"
)

// maxFrameData is the number of frame bytes kept in a FrameEvent.
const maxFrameData = 512

// NewFrameEvent captures a frame, truncating large payloads.
func NewFrameEvent(data []byte) *FrameEvent {
	fe := &FrameEvent{Size: len(data)}
	if len(data) > maxFrameData {
		fe.Data = append([]byte(nil), data[:maxFrameData]...)
		fe.Truncated = true
	} else {
		fe.Data = append([]byte(nil), data...)
	}
	return fe
}

// Format renders an event as one line for the trace dump.
func Format(e Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %-3s %-11s %-7s", e.Timestamp.Format(time.RFC3339Nano), e.Direction, e.Layer, e.Category)
	switch {
	case e.Frame != nil:
		fmt.Fprintf(&sb, " %d bytes % X", e.Frame.Size, e.Frame.Data)
		if e.Frame.Truncated {
			sb.WriteString(" ...")
		}
	case e.Message != nil:
		sb.WriteString(" " + e.Message.Command)
		if e.Message.ClassID != nil {
			fmt.Fprintf(&sb, " class=%d", *e.Message.ClassID)
		}
		if e.Message.LogicalName != "" {
			sb.WriteString(" ln=" + e.Message.LogicalName)
		}
		if e.Message.Index != nil {
			fmt.Fprintf(&sb, " index=%d", *e.Message.Index)
		}
		if e.Message.Result != "" {
			sb.WriteString(" result=" + e.Message.Result)
		}
	case e.StateChange != nil:
		fmt.Fprintf(&sb, " %s %s -> %s", e.StateChange.Entity, e.StateChange.OldState, e.StateChange.NewState)
		if e.StateChange.Reason != "" {
			sb.WriteString(" (" + e.StateChange.Reason + ")")
		}
	case e.Error != nil:
		sb.WriteString(" " + e.Error.Message)
		if e.Error.Context != "" {
			sb.WriteString(" [" + e.Error.Context + "]")
		}
	}
	return sb.String()
}
