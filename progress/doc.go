// Package progress keeps aggregated counters of queue activity (items pushed,
// popped, packed, checkpointed, ...) for a single queue owner so that a
// coordinator goroutine can observe them while the owner works.
package progress
