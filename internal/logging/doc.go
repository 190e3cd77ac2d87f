// Package logging assembles structured slog loggers and formatting helpers used
// across vgrid.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so compile code can tag log lines
// with the compile ID and track being processed. The package also provides a
// no-op logger for tests and library callers that pass no logger.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
