// Package logging assembles the structured slog loggers and progress helpers
// used across purlmatch.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and provides component loggers plus a no-op logger for tests and
// wiring code that cannot fail. LoopProgress gives long-running chunked
// iterations periodic visibility without flooding the log.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
