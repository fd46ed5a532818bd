/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bwnet

import (
	"net"

	"github.com/acronis/go-bwlimit/bwgroup"
)

// Listener is a net.Listener whose accepted connections share the bandwidth of one group.
type Listener struct {
	net.Listener
	group *bwgroup.Group
	opts  ConnOpts
}

var _ net.Listener = (*Listener)(nil)

// NewListener wraps l.
func NewListener(l net.Listener, group *bwgroup.Group, opts ConnOpts) *Listener {
	return &Listener{Listener: l, group: group, opts: opts}
}

// Accept waits for the next connection and adds it to the group.
// If the connection cannot join the group, it is closed and the error is returned.
func (l *Listener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	conn, err := NewConn(c, l.group, l.opts)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return conn, nil
}

// Group returns the group of the accepted connections.
func (l *Listener) Group() *bwgroup.Group {
	return l.group
}
