// Package media defines the records exchanged between identification,
// planning, scoring and relocation.
//
// A Record is the engine's best guess about one primary video file. An
// IdentificationResult wraps a Record together with the reasons that led to
// it, and a MoveOutcome reports what a relocation call did on disk.
package media
