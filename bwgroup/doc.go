/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package bwgroup shares one read/write bandwidth budget between a dynamic group of connections.
//
// The connections themselves are owned by an external runtime (an event loop, a net.Conn wrapper, etc.).
// The runtime reports the number of bytes it has read or written through a connection's Handle,
// and the group answers with suspend and resume directives delivered via callbacks:
//
//   - when the budget of a direction is exhausted, the direction is suspended on every member;
//   - on every refill tick the budget is advanced, and once the direction has credit again,
//     it is resumed on every member starting from a randomly chosen one,
//     so no connection is always the first to grab the new capacity.
//
// Read and write are accounted and broadcast independently.
//
// Every operation of a group is serialized by one mutex and callbacks are invoked while it is held.
// Callbacks must therefore return quickly and must not call any method of the Group or of a Handle.
//
// Example:
//
//	loop := evloop.New(logger)
//	group, err := bwgroup.New(loop, 1<<20, 1<<20)
//	if err != nil {
//		return err
//	}
//	h, err := group.Add(conn)
//	if err != nil {
//		return err
//	}
//	h.SetCallbacks(onSuspend, onResume, conn)
//	...
//	n, err := conn.Read(buf)
//	_ = h.ReportRead(n)
//	...
//	_ = h.Remove()
//	_ = group.Close()
package bwgroup
