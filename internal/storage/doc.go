// Package storage holds the persistence backends for the board blob: a
// JSON file guarded by a lock file, and a SQLite key/value table.
package storage
