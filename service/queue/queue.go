package queue

import (
	"fmt"

	"github.com/viant/circle/internal/buffer"
	"github.com/viant/circle/model"
)

const minRing = 8

// Queue is an ordered container of byte strings with FIFO semantics.
type Queue struct {
	items  [][]byte
	head   int
	count  int
	buf    *buffer.Buffer
	retain int
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	o := &options{retain: DefaultRetain, capacity: minRing}
	for _, opt := range opts {
		opt(o)
	}
	return &Queue{
		items:  make([][]byte, o.capacity),
		buf:    buffer.New(o.bufferOptions...),
		retain: o.retain,
	}
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	return q.count
}

// Push copies item and appends it as the newest element.
func (q *Queue) Push(item []byte) error {
	if item == nil {
		return fmt.Errorf("%w: nil item", model.ErrInvalidArgument)
	}
	owned := make([]byte, len(item))
	copy(owned, item)
	q.pushBack(owned)
	return nil
}

// Pop removes and returns the oldest element.
func (q *Queue) Pop() ([]byte, error) {
	if q.count == 0 {
		return nil, model.ErrEmpty
	}
	return q.popFront(), nil
}

// PeekSize returns the byte length of the oldest element.
func (q *Queue) PeekSize() (int, error) {
	if q.count == 0 {
		return 0, model.ErrEmpty
	}
	return len(q.items[q.head]), nil
}

// Snapshot returns copies of all items, oldest first, leaving the queue intact.
func (q *Queue) Snapshot() [][]byte {
	ret := make([][]byte, 0, q.count)
	q.each(func(item []byte) bool {
		dup := make([]byte, len(item))
		copy(dup, item)
		ret = append(ret, dup)
		return true
	})
	return ret
}

// Each visits items oldest first without copying until fn returns false.
// The visited slices must not be retained or modified.
func (q *Queue) Each(fn func(item []byte) bool) {
	q.each(fn)
}

// Clear drops all items and returns how many were dropped.
func (q *Queue) Clear() int {
	dropped := q.count
	for i := range q.items {
		q.items[i] = nil
	}
	q.head = 0
	q.count = 0
	return dropped
}

// Close releases item storage and the pack arena.
func (q *Queue) Close() {
	q.Clear()
	q.items = nil
	q.buf.Reset()
}

func (q *Queue) each(fn func(item []byte) bool) {
	for i := 0; i < q.count; i++ {
		if !fn(q.items[(q.head+i)%len(q.items)]) {
			return
		}
	}
}

func (q *Queue) pushBack(item []byte) {
	q.reserve()
	q.items[(q.head+q.count)%len(q.items)] = item
	q.count++
}

func (q *Queue) pushFront(item []byte) {
	q.reserve()
	q.head = (q.head - 1 + len(q.items)) % len(q.items)
	q.items[q.head] = item
	q.count++
}

func (q *Queue) popFront() []byte {
	item := q.items[q.head]
	q.items[q.head] = nil
	q.head = (q.head + 1) % len(q.items)
	q.count--
	if q.count == 0 {
		q.head = 0
	}
	return item
}

// reserve doubles the ring when it is full, unrolling it so head is 0.
func (q *Queue) reserve() {
	if q.count < len(q.items) {
		return
	}
	size := 2 * len(q.items)
	if size < minRing {
		size = minRing
	}
	grown := make([][]byte, size)
	for i := 0; i < q.count; i++ {
		grown[i] = q.items[(q.head+i)%len(q.items)]
	}
	q.items = grown
	q.head = 0
}
