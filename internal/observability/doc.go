// Package observability records what happens to the board in an append-only
// JSON Lines event log and summarises that history on demand.
package observability
