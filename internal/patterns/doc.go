// Package patterns extracts identification signals from file and folder names.
//
// Every function is pure: regular expressions are compiled once at package
// initialization and nothing here touches the filesystem. The identification
// engine combines these signals with folder structure and sidecar metadata.
package patterns
