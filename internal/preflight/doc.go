// Package preflight provides readiness checks for the paths and binaries
// reshelf depends on.
//
// The CLI "reshelf status" command runs RunAll and renders the results.
// "reshelf move" and "reshelf watch" use CheckLibraryRoot before a live batch
// so an unwritable library fails fast instead of per file.
package preflight
