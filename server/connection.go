// File: server/connection.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection drives one client socket through the line state machine in
// response to one-shot readiness notifications.

package server

import (
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/momentics/pingpong/api"
	"github.com/momentics/pingpong/protocol"
	"github.com/sirupsen/logrus"
)

// Connection owns one accepted socket. It is only ever touched from the
// event loop goroutine.
type Connection struct {
	sock   api.Socket
	handle api.Handle
	state  protocol.State
	log    logrus.FieldLogger
}

func newConnection(sock api.Socket, h api.Handle, maxLine int, log logrus.FieldLogger) *Connection {
	return &Connection{
		sock:   sock,
		handle: h,
		state:  protocol.NewState(maxLine),
		log:    log.WithFields(logrus.Fields{"handle": h, "remote": sock.RemoteAddr()}),
	}
}

// Handle returns the registry slot of the connection.
func (c *Connection) Handle() api.Handle { return c.handle }

// IsClosed reports whether the connection reached its terminal state.
func (c *Connection) IsClosed() bool { return c.state.IsClosed() }

// Ready handles one readiness notification. The event must match the
// interest the connection armed; anything else means the loop and the state
// machine disagree, which is a bug, so it panics.
func (c *Connection) Ready(loop api.EventLoop, events api.Interest) {
	want := c.state.RequiredInterest()
	if events.Failed() {
		// Let the next I/O attempt surface the socket error.
		events |= want
	}
	if want == api.InterestNone || events&want == 0 {
		panic(fmt.Errorf("%w: handle %d got %s, want %s\n%s",
			api.ErrInterestMismatch, c.handle, events, want, spew.Sdump(&c.state)))
	}

	switch c.state.Phase() {
	case protocol.Reading:
		c.onReadable(loop)
	case protocol.Writing:
		c.onWritable(loop)
	}
}

func (c *Connection) onReadable(loop api.EventLoop) {
	n, err := c.sock.Read(c.state.ReadBuf())
	switch {
	case err == nil && n == 0:
		c.log.Debug("peer closed connection")
		c.state.Close()
	case err == nil:
		c.log.Debugf("read %d bytes", n)
		c.state.AppendReadable(n)
		c.state.TryTransitionToWriting()
		c.reregister(loop)
	case errors.Is(err, api.ErrWouldBlock):
		c.reregister(loop)
	default:
		c.fail("read", err)
	}
}

func (c *Connection) onWritable(loop api.EventLoop) {
	n, err := c.sock.Write(c.state.WriteBuf())
	switch {
	case err == nil:
		c.state.Advance(n)
		c.state.TryTransitionToReading()
		c.reregister(loop)
	case errors.Is(err, api.ErrWouldBlock):
		c.reregister(loop)
	default:
		c.fail("write", err)
	}
}

// reregister re-arms exactly the interest the current phase needs. Skipping
// it would leave the socket silent forever.
func (c *Connection) reregister(loop api.EventLoop) {
	err := loop.Reregister(c.sock.FD(), c.handle, c.state.RequiredInterest(), api.ModeEdgeOneShot)
	if err != nil {
		c.fail("rearm", err)
	}
}

func (c *Connection) fail(op string, err error) {
	c.log.WithError(err).Warnf("%s failed, closing connection", op)
	c.state.Close()
}

// Close moves the connection to Closed and releases its socket.
func (c *Connection) Close() error {
	c.state.Close()
	return c.sock.Close()
}
