package queue

import (
	"fmt"

	"github.com/viant/circle/model"
)

// PackMulti pops up to max oldest items into one contiguous payload.
// The returned batch aliases the pack arena and stays valid until the next
// PackMulti or ReceiveBuffer call, unless the arena outgrew the retain limit,
// in which case the payload is detached and owned by the caller.
func (q *Queue) PackMulti(max int) (*model.Batch, error) {
	if max < 0 {
		return nil, fmt.Errorf("%w: negative pack count %d", model.ErrInvalidArgument, max)
	}
	n := max
	if n > q.count {
		n = q.count
	}
	batch := &model.Batch{Offsets: make(model.Offsets, 0, n)}
	if n == 0 {
		return batch, nil
	}

	if q.buf.Failed() {
		q.buf.Reset()
	}
	popped := make([][]byte, 0, n)
	cursor := 0
	for i := 0; i < n; i++ {
		item := q.items[q.head]
		end := cursor + len(item)
		if err := q.buf.Ensure(end); err != nil {
			q.restore(popped)
			return nil, fmt.Errorf("failed to grow pack buffer to %d bytes: %w", end, err)
		}
		data, _ := q.buf.Bytes()
		copy(data[cursor:end], item)
		cursor = end
		batch.Offsets = append(batch.Offsets, cursor)
		popped = append(popped, q.popFront())
	}

	if q.buf.Cap() > q.retain {
		batch.Data = q.buf.Detach(cursor)
	} else {
		data, _ := q.buf.Bytes()
		batch.Data = data[:cursor:cursor]
	}
	q.compact()
	return batch, nil
}

// UnpackMulti pushes every item of batch in index order. The whole index is
// validated first, an invalid batch leaves the queue unchanged.
func (q *Queue) UnpackMulti(batch *model.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	for i := 0; i < batch.Len(); i++ {
		if err := q.Push(batch.Item(i)); err != nil {
			return fmt.Errorf("failed to push item %d: %w", i, err)
		}
	}
	return nil
}

// ReceiveBuffer grows the arena to at least size bytes, discarding its
// contents, and returns [0,size) for a transport to receive a payload into.
func (q *Queue) ReceiveBuffer(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative receive size %d", model.ErrInvalidArgument, size)
	}
	if q.buf.Failed() {
		q.buf.Reset()
	}
	if err := q.buf.Extend(size); err != nil {
		return nil, fmt.Errorf("failed to grow receive buffer to %d bytes: %w", size, err)
	}
	data, err := q.buf.Bytes()
	if err != nil {
		return nil, err
	}
	return data[:size], nil
}

// BufferCap returns the current pack arena capacity.
func (q *Queue) BufferCap() int {
	return q.buf.Cap()
}

// restore puts popped items back at the front in their original order.
func (q *Queue) restore(popped [][]byte) {
	for i := len(popped) - 1; i >= 0; i-- {
		q.pushFront(popped[i])
	}
}

// compact shrinks the item ring once a drain leaves it mostly empty.
func (q *Queue) compact() {
	if len(q.items) <= minRing || q.count > len(q.items)/4 {
		return
	}
	size := len(q.items) / 2
	for size > minRing && q.count <= size/4 {
		size /= 2
	}
	if size < minRing {
		size = minRing
	}
	shrunk := make([][]byte, size)
	for i := 0; i < q.count; i++ {
		shrunk[i] = q.items[(q.head+i)%len(q.items)]
	}
	q.items = shrunk
	q.head = 0
}

// RestoreFront puts the items of a batch back at the front of the queue in
// batch order, undoing a PackMulti whose batch could not be handed off.
func (q *Queue) RestoreFront(batch *model.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	for i := batch.Len() - 1; i >= 0; i-- {
		src := batch.Item(i)
		owned := make([]byte, len(src))
		copy(owned, src)
		q.pushFront(owned)
	}
	return nil
}
