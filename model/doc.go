// Package model contains the data types shared by the queue, the multi-pack
// codec and the checkpoint codec: the packed Batch with its offset index and
// the sentinel errors every component reports.
//
// A Batch is the wire shape handed to a bulk transport: one contiguous
// payload plus an index of cumulative end offsets. The payload carries no
// embedded lengths or counts, the index length is authoritative.
package model
