package model

import "errors"

// Sentinel errors reported by the queue and its codecs. Callers detect the
// condition with errors.Is; every component wraps them with context.
var (
	// ErrInvalidArgument is returned for a nil item, a negative count or
	// rank, and an offset index that does not fit its buffer.
	ErrInvalidArgument = errors.New("circle: invalid argument")

	// ErrEmpty is returned by Pop and PeekSize on an empty queue. It is a
	// normal control-flow signal while draining.
	ErrEmpty = errors.New("circle: queue is empty")

	// ErrAllocationFailed is returned when the growable buffer cannot reach
	// the requested capacity.
	ErrAllocationFailed = errors.New("circle: allocation failed")

	// ErrIOFailed wraps checkpoint open, read, write and close failures.
	ErrIOFailed = errors.New("circle: checkpoint io failed")

	// ErrPartialWrite indicates a checkpoint write stopped partway; the file
	// does not reflect the queue.
	ErrPartialWrite = errors.New("circle: checkpoint partially written")

	// ErrNotFound is returned when no checkpoint exists for a rank.
	ErrNotFound = errors.New("circle: checkpoint not found")

	// ErrDegradedRead indicates a checkpoint read skipped lines it could not
	// read. The accompanying report lists the failures.
	ErrDegradedRead = errors.New("circle: checkpoint read degraded")
)
