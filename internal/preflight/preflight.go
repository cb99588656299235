package preflight

import (
	"context"

	"reshelf/internal/config"
	"reshelf/internal/deps"
)

// Result reports the outcome of a single preflight check. Optional checks
// that fail degrade features instead of blocking runs.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.Paths.Source != "" {
		results = append(results, CheckSourceDir("Source directory", cfg.Paths.Source))
	}
	if cfg.Paths.MoviesDir != "" {
		results = append(results, CheckLibraryRoot("Movies library", cfg.Paths.MoviesDir))
	}
	if cfg.Paths.TVDir != "" {
		results = append(results, CheckLibraryRoot("TV library", cfg.Paths.TVDir))
	}
	if cfg.Paths.StateDir != "" {
		results = append(results, CheckLibraryRoot("State directory", cfg.Paths.StateDir))
	}

	for _, status := range deps.CheckBinaries(ctx, []deps.Requirement{deps.FFprobe(cfg.Identification.FFprobeBinary)}) {
		results = append(results, FromDependency(status))
	}

	return results
}

// FromDependency converts a binary availability status into a Result.
func FromDependency(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	switch {
	case !status.Available:
		result.Detail = status.Detail
		if status.Optional && status.Description != "" {
			result.Detail += " (" + status.Description + ")"
		}
	case status.Version != "":
		result.Detail = status.Version
	default:
		result.Detail = status.Path
	}
	return result
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
