// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and decodes the format section; DurationProbe builds
// on it to answer the one question the identification engine asks, namely
// how long a file plays. Failures are tagged services.ErrExternalTool or
// services.ErrTimeout so callers can treat them as non-fatal.
package ffprobe
