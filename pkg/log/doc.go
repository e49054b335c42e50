// Package log provides the protocol trace for conformance runs.
//
// It is separate from operational logging (slog). The trace captures every
// frame and decoded PDU exchanged with a meter so a failed run can be
// analysed after the fact.
//
// # Basic Usage
//
// Sessions are wrapped with a Logger:
//
//	// For development: trace to console via slog
//	trace := log.NewSlogAdapter(slog.Default())
//
//	// For runs: write to the job's result directory
//	trace, _ := log.NewFileLogger(filepath.Join(dir, "trace.clog"))
//
//	// Both: use MultiLogger
//	trace := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at two layers:
//   - Frame: raw frame bytes (FrameEvent)
//   - APDU: decoded PDUs (MessageEvent)
//
// Association and media state changes and errors have dedicated event
// types.
//
// # File Format
//
// Trace files use CBOR encoding with integer keys and the .clog
// extension. The trace command of cosem-test dumps and filters them.
package log
