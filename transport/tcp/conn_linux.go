//go:build linux
// +build linux

// File: transport/tcp/conn_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp

import (
	"fmt"

	"github.com/momentics/pingpong/api"
	"golang.org/x/sys/unix"
)

// Conn is an accepted non-blocking stream socket owned by one connection.
type Conn struct {
	fd     int
	remote string
	closed bool
}

var _ api.Socket = (*Conn)(nil)

func newConn(fd int, remote string) *Conn {
	return &Conn{fd: fd, remote: remote}
}

// Read reads without blocking. (0, nil) means the peer closed its side.
func (c *Conn) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(c.fd, p)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, api.ErrWouldBlock
		default:
			return 0, fmt.Errorf("read fd=%d: %w", c.fd, err)
		}
	}
}

// Write writes without blocking and may be partial.
func (c *Conn) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(c.fd, p)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, api.ErrWouldBlock
		default:
			return 0, fmt.Errorf("write fd=%d: %w", c.fd, err)
		}
	}
}

// Close releases the descriptor. Closing also drops it from any epoll set.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return unix.Close(c.fd)
}

// FD returns the socket descriptor.
func (c *Conn) FD() int { return c.fd }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string { return c.remote }
