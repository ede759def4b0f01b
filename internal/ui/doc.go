// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate command lifecycle events into concise messages so that
// remote operations remain visible to CLI users without echoing every routine
// repository query; detailed telemetry continues to flow through structured
// loggers.
package ui
