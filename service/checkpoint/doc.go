// Package checkpoint persists a queue to a per-rank text file and restores it.
//
// The file is named circle<rank>.txt under a configurable base URL and holds
// one item per line terminated by '\n'. There is no header, length prefix or
// checksum, an item with an embedded newline does not round-trip.
//
// Write is checkpoint-and-clear: a successful write drains the queue. It is
// not atomic, a failure can leave a partially written file.
package checkpoint
