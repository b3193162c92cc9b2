package buffer

import (
	"fmt"
	"math"
	"os"

	"github.com/viant/circle/model"
)

// DefaultLimit caps a single arena at 1 GiB.
const DefaultLimit = 1 << 30

// Buffer is an owned, resizable byte arena addressed [0, Cap()).
type Buffer struct {
	base   []byte
	floor  int
	limit  int
	grows  int
	failed bool
}

// Option configures a Buffer.
type Option func(b *Buffer)

// WithFloor sets the smallest capacity the arena grows to.
func WithFloor(floor int) Option {
	return func(b *Buffer) {
		if floor > 0 {
			b.floor = floor
		}
	}
}

// WithLimit sets the largest capacity the arena may reach, 0 disables the limit.
func WithLimit(limit int) Option {
	return func(b *Buffer) {
		if limit >= 0 {
			b.limit = limit
		}
	}
}

// New creates an empty buffer; storage is allocated on the first grow.
func New(options ...Option) *Buffer {
	ret := &Buffer{floor: os.Getpagesize(), limit: DefaultLimit}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Cap returns the current capacity in bytes.
func (b *Buffer) Cap() int {
	return len(b.base)
}

// Grows returns the number of reallocations performed so far.
func (b *Buffer) Grows() int {
	return b.grows
}

// Failed reports whether a preserving grow left the buffer unusable.
func (b *Buffer) Failed() bool {
	return b.failed
}

// Bytes returns the whole arena window.
func (b *Buffer) Bytes() ([]byte, error) {
	if b.failed {
		return nil, fmt.Errorf("%w: buffer unusable after failed grow", model.ErrAllocationFailed)
	}
	return b.base, nil
}

// Ensure is a no-op when the capacity already covers min, otherwise it
// performs a preserving grow.
func (b *Buffer) Ensure(min int) error {
	if b.failed {
		return fmt.Errorf("%w: buffer unusable after failed grow", model.ErrAllocationFailed)
	}
	if len(b.base) >= min {
		return nil
	}
	return b.ExtendPreserve(min)
}

// Extend grows the arena to at least min bytes, discarding prior contents.
// On failure the previous storage stays valid.
func (b *Buffer) Extend(min int) error {
	if b.failed {
		return fmt.Errorf("%w: buffer unusable after failed grow", model.ErrAllocationFailed)
	}
	if len(b.base) >= min {
		return nil
	}
	capacity, err := b.nextCapacity(min)
	if err != nil {
		return err
	}
	fresh, err := allocate(capacity)
	if err != nil {
		return err
	}
	b.base = fresh
	b.grows++
	return nil
}

// ExtendPreserve grows the arena to at least min bytes keeping the existing
// contents. On failure the storage is dropped and the buffer stays unusable
// until Reset.
func (b *Buffer) ExtendPreserve(min int) error {
	if b.failed {
		return fmt.Errorf("%w: buffer unusable after failed grow", model.ErrAllocationFailed)
	}
	if len(b.base) >= min {
		return nil
	}
	capacity, err := b.nextCapacity(min)
	if err == nil {
		var fresh []byte
		if fresh, err = allocate(capacity); err == nil {
			copy(fresh, b.base)
			b.base = fresh
			b.grows++
			return nil
		}
	}
	b.base = nil
	b.failed = true
	return err
}

// Detach hands [0,n) to the caller and releases the arena.
func (b *Buffer) Detach(n int) []byte {
	if n > len(b.base) {
		n = len(b.base)
	}
	ret := b.base[:n:n]
	b.base = nil
	return ret
}

// Release drops the storage; the next grow allocates lazily.
func (b *Buffer) Release() {
	b.base = nil
}

// Reset drops the storage and clears the failed state.
func (b *Buffer) Reset() {
	b.base = nil
	b.failed = false
}

func (b *Buffer) nextCapacity(min int) (int, error) {
	if min < 0 {
		return 0, fmt.Errorf("%w: negative capacity %d", model.ErrInvalidArgument, min)
	}
	if b.limit > 0 && min > b.limit {
		return 0, fmt.Errorf("%w: %d bytes exceeds limit of %d", model.ErrAllocationFailed, min, b.limit)
	}
	capacity := len(b.base)
	if capacity < b.floor {
		capacity = b.floor
	}
	for capacity < min {
		if capacity > math.MaxInt/2 {
			return 0, fmt.Errorf("%w: capacity overflow growing to %d", model.ErrAllocationFailed, min)
		}
		capacity *= 2
	}
	if b.limit > 0 && capacity > b.limit {
		capacity = b.limit
	}
	return capacity, nil
}

func allocate(size int) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("%w: %v", model.ErrAllocationFailed, r)
		}
	}()
	return make([]byte, size), nil
}
