// Package idgen generates the identifiers attached to exchanged batches.
// Callers treat the values as opaque strings.
package idgen
