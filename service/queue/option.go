package queue

import "github.com/viant/circle/internal/buffer"

// DefaultRetain is the arena capacity kept after a pack.
const DefaultRetain = 1 << 20

type options struct {
	bufferOptions []buffer.Option
	retain        int
	capacity      int
}

// Option configures a Queue.
type Option func(o *options)

// WithBufferFloor sets the smallest capacity the pack arena grows to.
func WithBufferFloor(floor int) Option {
	return func(o *options) {
		o.bufferOptions = append(o.bufferOptions, buffer.WithFloor(floor))
	}
}

// WithBufferLimit caps the pack arena capacity, 0 disables the cap.
func WithBufferLimit(limit int) Option {
	return func(o *options) {
		o.bufferOptions = append(o.bufferOptions, buffer.WithLimit(limit))
	}
}

// WithRetain sets the arena capacity kept after a pack. A larger arena is
// detached into the returned batch and released, 0 always detaches.
func WithRetain(retain int) Option {
	return func(o *options) {
		if retain >= 0 {
			o.retain = retain
		}
	}
}

// WithCapacity presizes the item ring.
func WithCapacity(capacity int) Option {
	return func(o *options) {
		if capacity > 0 {
			o.capacity = capacity
		}
	}
}
