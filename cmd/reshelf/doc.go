// Package main hosts the reshelf CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging and the internal
// packages into one-shot commands: identify and scan report what reshelf
// thinks each file is, move runs a relocation batch, history reads the move
// journal, watch repeats batches on filesystem changes or a schedule, and
// status runs environment checks.
//
// Keep this package lean: behavior belongs in internal packages, commands
// only resolve flags against configuration and render results.
package main
