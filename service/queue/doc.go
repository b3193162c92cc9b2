// Package queue implements the FIFO work-item queue and its multi-pack codec.
//
// Items are opaque byte strings. The queue copies an item on Push and owns it
// until Pop hands it back. PackMulti drains up to N oldest items into one
// contiguous payload plus an offset index; UnpackMulti reverses it.
//
// A Queue has no internal synchronization and must be used by one owner at
// a time.
package queue
