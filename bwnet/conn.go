/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package bwnet makes net.Conn and net.Listener members of a bandwidth group.
//
// Reads and writes are charged to the group right after they happen, and while the group
// suspends a direction, Read or Write calls of every member wait until the direction is resumed,
// the connection is closed or the deadline passes.
package bwnet

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/xid"
	"go.uber.org/atomic"

	"github.com/acronis/go-bwlimit/bwgroup"
	"github.com/acronis/go-bwlimit/log"
)

// DefaultChunkSize is the maximum number of bytes read or written by one underlying call.
const DefaultChunkSize = 16 * 1024

// ConnOpts represents optional parameters of a Conn.
type ConnOpts struct {
	// ChunkSize limits the size of one underlying read or write, so a single call
	// does not overdraw the shared budget too much. DefaultChunkSize is used if zero.
	ChunkSize int

	// Logger is used for logging connection lifecycle. Disabled by default.
	Logger log.FieldLogger
}

// Conn is a net.Conn whose traffic is limited by a bandwidth group.
type Conn struct {
	net.Conn
	id        xid.ID
	handle    *bwgroup.Handle
	logger    log.FieldLogger
	chunkSize int

	readGate  *gate
	writeGate *gate
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error

	readDeadline  atomic.Time
	writeDeadline atomic.Time
	bytesRead     atomic.Uint64
	bytesWritten  atomic.Uint64
}

var _ net.Conn = (*Conn)(nil)
var _ bwgroup.Controller = (*Conn)(nil)

// NewConn adds c to the group. If the group is currently suspended in some direction,
// the connection starts suspended in it too.
func NewConn(c net.Conn, group *bwgroup.Group, opts ConnOpts) (*Conn, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	conn := &Conn{
		Conn:      c,
		id:        xid.New(),
		chunkSize: opts.ChunkSize,
		readGate:  newGate(),
		writeGate: newGate(),
		closed:    make(chan struct{}),
	}
	conn.logger = opts.Logger.With(log.String("conn_id", conn.id.String()))

	h, err := group.Add(conn)
	if err != nil {
		return nil, fmt.Errorf("join bandwidth group: %w", err)
	}
	if err = h.Join(conn); err != nil {
		return nil, fmt.Errorf("join bandwidth group: %w", err)
	}
	conn.handle = h

	conn.logger.Debug("connection joined bandwidth group", log.String("remote_addr", addrString(c.RemoteAddr())))
	return conn, nil
}

// ID returns the unique id of the connection.
func (c *Conn) ID() xid.ID {
	return c.id
}

// Handle returns the membership of the connection in its group.
func (c *Conn) Handle() *bwgroup.Handle {
	return c.handle
}

// BytesRead returns the number of bytes read through the connection.
func (c *Conn) BytesRead() uint64 {
	return c.bytesRead.Load()
}

// BytesWritten returns the number of bytes written through the connection.
func (c *Conn) BytesWritten() uint64 {
	return c.bytesWritten.Load()
}

// Suspend blocks the direction. It is called by the group.
func (c *Conn) Suspend(_ *bwgroup.Handle, dir bwgroup.Direction) {
	c.gate(dir).close()
}

// Resume unblocks the direction. It is called by the group.
func (c *Conn) Resume(_ *bwgroup.Handle, dir bwgroup.Direction) {
	c.gate(dir).open()
}

// Suspended reports whether the direction is currently blocked for this connection.
func (c *Conn) Suspended(dir bwgroup.Direction) bool {
	if !dir.Valid() {
		return false
	}
	return !c.gate(dir).isOpen()
}

func (c *Conn) gate(dir bwgroup.Direction) *gate {
	if dir == bwgroup.DirectionRead {
		return c.readGate
	}
	return c.writeGate
}

// Read waits while reading is suspended, reads at most ChunkSize bytes and charges them to the group.
func (c *Conn) Read(p []byte) (int, error) {
	if err := c.readGate.wait(c.closed, c.readDeadline.Load()); err != nil {
		return 0, c.opError("read", err)
	}
	if len(p) > c.chunkSize {
		p = p[:c.chunkSize]
	}
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.bytesRead.Add(uint64(n))
		c.report(bwgroup.DirectionRead, n)
	}
	return n, err
}

// Write writes p in chunks of at most ChunkSize bytes, waiting while writing is suspended
// before every chunk, and charges written bytes to the group.
func (c *Conn) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if err := c.writeGate.wait(c.closed, c.writeDeadline.Load()); err != nil {
			return written, c.opError("write", err)
		}
		chunk := p[written:]
		if len(chunk) > c.chunkSize {
			chunk = chunk[:c.chunkSize]
		}
		n, err := c.Conn.Write(chunk)
		if n > 0 {
			written += n
			c.bytesWritten.Add(uint64(n))
			c.report(bwgroup.DirectionWrite, n)
		}
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (c *Conn) report(dir bwgroup.Direction, n int) {
	var err error
	if dir == bwgroup.DirectionRead {
		err = c.handle.ReportRead(n)
	} else {
		err = c.handle.ReportWrite(n)
	}
	// The handle is removed only by Close, I/O racing with it is not charged.
	if err != nil && !errors.Is(err, bwgroup.ErrHandleRemoved) {
		c.logger.Error("report bandwidth usage", log.Error(err))
	}
}

// SetDeadline sets both read and write deadlines. Waiting for a resume is limited by them too.
func (c *Conn) SetDeadline(t time.Time) error {
	c.readDeadline.Store(t)
	c.writeDeadline.Store(t)
	return c.Conn.SetDeadline(t)
}

// SetReadDeadline sets the read deadline. Waiting for a read resume is limited by it too.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.readDeadline.Store(t)
	return c.Conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline. Waiting for a write resume is limited by it too.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.writeDeadline.Store(t)
	return c.Conn.SetWriteDeadline(t)
}

// Close removes the connection from the group, unblocks pending Read and Write calls
// and closes the underlying connection.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		if err := c.handle.Remove(); err != nil {
			c.logger.Warn("leave bandwidth group", log.Error(err))
		}
		c.closeErr = c.Conn.Close()
		c.logger.Debug("connection left bandwidth group",
			log.Bytes("bytes_read", c.bytesRead.Load()), log.Bytes("bytes_written", c.bytesWritten.Load()))
	})
	return c.closeErr
}

func (c *Conn) opError(op string, err error) error {
	return &net.OpError{Op: op, Net: netString(c.LocalAddr()), Source: c.LocalAddr(), Addr: c.RemoteAddr(), Err: err}
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func netString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.Network()
}
