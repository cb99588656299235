// Package organizer runs a relocation batch over scanned media.
//
// For each scanned item the organizer scores the identification, drops items
// below the confidence floor and unknown kinds, plans the library path, and
// hands the record to the relocation engine. Relocations run one at a time.
// Live batches hold an exclusive lock file in every destination root so two
// processes never write into the same library at once, and every item is
// journaled when a history store is configured.
package organizer
