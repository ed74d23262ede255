// Package log provides structured protocol event logging for the node.
//
// This is separate from debug logging (which uses log/slog): protocol
// events are a machine-readable record of what went over the network -
// broadcasts, confirmed requests, outcomes, lifecycle transitions - and
// are written as a CBOR stream for compactness and replay.
//
// Applications pass a Logger to the node; NoopLogger disables capture,
// FileLogger appends to a CBOR file, MultiLogger fans out, and SlogAdapter
// mirrors events onto an slog.Logger for interleaved debug output.
package log
