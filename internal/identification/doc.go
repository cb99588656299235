// Package identification classifies a video file as a movie, an episode or
// unknown using only its path, its neighbours and an optional .nfo sidecar.
//
// Engine.Identify never fails: every input produces a media.Record, and
// problems such as an unreadable sidecar are reported in the result's Errors
// list. Each decision is traced in Reasons so users can see why a file was
// classified the way it was.
//
// An Engine memoizes directory listings and duration probes. It is not meant
// to be shared across goroutines; give each worker its own Engine.
package identification
