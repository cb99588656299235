// Package config loads, normalizes, and validates reshelf configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RESHELF_MOVIES_DIR. The Config type centralizes every knob the CLI needs so
// library roots, identification heuristics and logging are discovered in one
// pass.
package config
