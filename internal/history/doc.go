// Package history persists a journal of relocation batches in SQLite.
//
// Every organizer run opens a batch (a UUID), records one entry per primary
// file with the action taken, and closes the batch when the run ends. The
// journal backs the `reshelf history` command and lets an operator trace
// where a file went. The database lives at <state_dir>/history.db, runs in
// WAL mode, and is migrated from embedded SQL files on open.
package history
