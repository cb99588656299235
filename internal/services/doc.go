// Package services defines shared utilities consumed by the identification,
// relocation and batch layers.
//
// Key responsibilities:
//   - Context helpers that stamp batch IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (parse, probe, preflight, move, configuration) consistently so the CLI
//     can map them to exit codes.
//
// Use these helpers when wiring new logic so error handling and observability
// stay uniform across packages.
package services
