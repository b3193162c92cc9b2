package model

import (
	"encoding/binary"
	"fmt"
	"math"
)

// offsetWidth is the encoded width of one index entry.
const offsetWidth = 4

// Offsets is the offset index of a packed batch. Offsets[i] is the exclusive
// end of item i, item i occupies [Offsets[i-1], Offsets[i]) with an implicit
// leading 0.
type Offsets []int

// Start returns the start position of item i.
func (o Offsets) Start(i int) int {
	if i == 0 {
		return 0
	}
	return o[i-1]
}

// Validate checks that the index is non-decreasing, non-negative and fits a
// payload of size bytes.
func (o Offsets) Validate(size int) error {
	prev := 0
	for i, end := range o {
		if end < prev {
			return fmt.Errorf("%w: offset[%d]=%d precedes %d", ErrInvalidArgument, i, end, prev)
		}
		if end > size {
			return fmt.Errorf("%w: offset[%d]=%d exceeds buffer of %d bytes", ErrInvalidArgument, i, end, size)
		}
		prev = end
	}
	return nil
}

// MarshalBinary encodes the index as fixed-width big-endian uint32 entries.
func (o Offsets) MarshalBinary() ([]byte, error) {
	data := make([]byte, len(o)*offsetWidth)
	for i, end := range o {
		if end < 0 || uint64(end) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: offset[%d]=%d does not fit uint32", ErrInvalidArgument, i, end)
		}
		binary.BigEndian.PutUint32(data[i*offsetWidth:], uint32(end))
	}
	return data, nil
}

// UnmarshalBinary decodes an index produced by MarshalBinary.
func (o *Offsets) UnmarshalBinary(data []byte) error {
	if len(data)%offsetWidth != 0 {
		return fmt.Errorf("%w: encoded index of %d bytes is not a multiple of %d", ErrInvalidArgument, len(data), offsetWidth)
	}
	decoded := make(Offsets, len(data)/offsetWidth)
	for i := range decoded {
		decoded[i] = int(binary.BigEndian.Uint32(data[i*offsetWidth:]))
	}
	*o = decoded
	return nil
}

// Batch is a packed set of items: one contiguous payload and its offset index.
type Batch struct {
	Data    []byte  `json:"data"`
	Offsets Offsets `json:"offsets"`
}

// Len returns the number of items in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Offsets)
}

// Size returns the number of payload bytes used by the packed items.
func (b *Batch) Size() int {
	if b == nil || len(b.Offsets) == 0 {
		return 0
	}
	return b.Offsets[len(b.Offsets)-1]
}

// Validate checks the offset index against the payload.
func (b *Batch) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil batch", ErrInvalidArgument)
	}
	return b.Offsets.Validate(len(b.Data))
}

// Item returns item i as a view on the payload. The batch must be valid.
func (b *Batch) Item(i int) []byte {
	return b.Data[b.Offsets.Start(i):b.Offsets[i]]
}
