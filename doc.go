// Package circle provides the work-item queue of a distributed work-stealing
// runtime.
//
// A Service owns one FIFO queue of opaque byte strings and exposes the
// operations a coordinator needs:
//
//   - Push, Pop, PeekSize, Len  – single item access
//   - CheckpointWrite/Read     – per-rank checkpoint-and-clear and restore
//   - PackMulti/UnpackMulti    – bulk transfer as one payload plus an offset index
//   - Offload/Accept           – pack and hand a batch to an exchange, and back
//
// The coordinator decides when to call each operation; the service does not
// synchronise access and must be driven by a single owner:
//
//	srv, _ := circle.New(circle.WithConfig(cfg))
//	defer srv.Close()
//	_ = srv.Push([]byte("/data/dir1"))
//	batch, _ := srv.PackMulti(ctx, 128)
//	_ = transport.Send(batch.Data, batch.Offsets)
package circle
