// Package relocation moves identified media files into a library with
// transactional safety.
//
// A relocation call preflights the destination (free space, write access and
// path length), moves the primary file, then each companion file, and rolls
// every completed transfer back in reverse order if any step fails. Moves on
// one volume are renames; moves across volumes are hash-verified copies that
// delete the source only after verification. Conflict policies decide what
// happens when a destination already exists.
package relocation
