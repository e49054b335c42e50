package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to the operational log at debug level,
// so --log-level=debug shows the exchange on the console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter returns an adapter logging to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// Log writes e as one "trace" record.
func (a *SlogAdapter) Log(e Event) {
	ctx := context.Background()
	if !a.logger.Enabled(ctx, a.level) {
		return
	}
	attrs := append(eventAttrs(e), payloadAttrs(e)...)
	a.logger.LogAttrs(ctx, a.level, "trace", attrs...)
}

func eventAttrs(e Event) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("conn_id", e.ConnectionID),
		slog.String("direction", e.Direction.String()),
		slog.String("layer", e.Layer.String()),
		slog.String("category", e.Category.String()),
	}
	if e.Device != "" {
		attrs = append(attrs, slog.String("device", e.Device))
	}
	if e.JobID != "" {
		attrs = append(attrs, slog.String("job_id", e.JobID))
	}
	return attrs
}

func payloadAttrs(e Event) []slog.Attr {
	switch {
	case e.Frame != nil:
		return []slog.Attr{slog.Int("frame_size", e.Frame.Size), slog.Bool("truncated", e.Frame.Truncated)}
	case e.Message != nil:
		return messageAttrs(e.Message)
	case e.StateChange != nil:
		sc := e.StateChange
		attrs := []slog.Attr{
			slog.String("entity", sc.Entity.String()),
			slog.String("old_state", sc.OldState),
			slog.String("new_state", sc.NewState),
		}
		if sc.Reason != "" {
			attrs = append(attrs, slog.String("reason", sc.Reason))
		}
		return attrs
	case e.Error != nil:
		attrs := []slog.Attr{
			slog.String("error_layer", e.Error.Layer.String()),
			slog.String("error_msg", e.Error.Message),
			slog.String("error_context", e.Error.Context),
		}
		if e.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *e.Error.Code))
		}
		return attrs
	}
	return nil
}

func messageAttrs(m *MessageEvent) []slog.Attr {
	attrs := []slog.Attr{slog.String("command", m.Command)}
	if m.ClassID != nil {
		attrs = append(attrs, slog.Uint64("class_id", uint64(*m.ClassID)))
	}
	if m.LogicalName != "" {
		attrs = append(attrs, slog.String("ln", m.LogicalName))
	}
	if m.Index != nil {
		attrs = append(attrs, slog.Int("index", *m.Index))
	}
	if m.Result != "" {
		attrs = append(attrs, slog.String("result", m.Result))
	}
	if m.RoundTrip != nil {
		attrs = append(attrs, slog.Duration("round_trip", *m.RoundTrip))
	}
	return attrs
}

var _ Logger = (*SlogAdapter)(nil)
