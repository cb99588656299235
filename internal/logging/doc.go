// Package logging assembles structured slog loggers and formatting helpers used
// across reshelf.
//
// It owns the console and JSON handlers, routes records to stderr and an
// optional size-rotated log file, and exposes context-aware helpers so batch
// code can tag log lines with batch IDs, stages, and correlation IDs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
