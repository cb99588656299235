// Package scanner walks a source tree for video files and identifies them on
// a bounded worker pool. Each worker owns its identification engine, so the
// engine caches are never shared between goroutines.
package scanner
