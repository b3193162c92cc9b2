// Package buffer provides the growable scratch arena used to pack and
// receive queue batches.
//
// Capacity grows by doubling from a floor (the OS page size by default) and
// is never shrunk in place. Contents beyond the last write are undefined.
package buffer
