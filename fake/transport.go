// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the socket, listener and
// event loop contracts.

package fake

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/momentics/pingpong/api"
)

type readStep struct {
	data []byte
	eof  bool
	err  error
}

// Socket is a scripted implementation of api.Socket. Reads are served from
// a queue of steps; an empty queue reads as would-block.
type Socket struct {
	mu         sync.Mutex
	fd         int
	remote     string
	reads      []readStep
	written    bytes.Buffer
	quotas     []int
	writeErr   error
	closeErr   error
	closed     bool
	closeCalls int
}

var _ api.Socket = (*Socket)(nil)

// NewSocket creates a fake socket reporting fd as its descriptor.
func NewSocket(fd int) *Socket {
	return &Socket{fd: fd, remote: fmt.Sprintf("fake:%d", fd)}
}

// QueueRead appends a chunk that one Read will return (possibly split if
// the caller's buffer is smaller).
func (s *Socket) QueueRead(chunk string) *Socket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, readStep{data: []byte(chunk)})
	return s
}

// QueueWouldBlock makes the next Read report api.ErrWouldBlock even if
// later steps are queued.
func (s *Socket) QueueWouldBlock() *Socket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, readStep{err: api.ErrWouldBlock})
	return s
}

// QueueEOF makes a Read report peer close.
func (s *Socket) QueueEOF() *Socket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, readStep{eof: true})
	return s
}

// QueueReadError makes a Read fail with err.
func (s *Socket) QueueReadError(err error) *Socket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, readStep{err: err})
	return s
}

// SetWriteQuotas limits successive Writes to the given byte counts. A quota
// of 0 reports api.ErrWouldBlock. Once exhausted, writes are unlimited.
func (s *Socket) SetWriteQuotas(q ...int) *Socket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotas = append(s.quotas[:0], q...)
	return s
}

// SetWriteError configures every Write to fail with err.
func (s *Socket) SetWriteError(err error) *Socket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
	return s
}

// SetCloseError makes Close report err after releasing the socket.
func (s *Socket) SetCloseError(err error) *Socket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeErr = err
	return s
}

// Read implements api.Socket.
func (s *Socket) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, api.ErrTransportClosed
	}
	if len(s.reads) == 0 {
		return 0, api.ErrWouldBlock
	}
	step := s.reads[0]
	switch {
	case step.eof:
		return 0, nil
	case step.err != nil:
		s.reads = s.reads[1:]
		return 0, step.err
	}
	n := copy(p, step.data)
	if n < len(step.data) {
		s.reads[0].data = step.data[n:]
	} else {
		s.reads = s.reads[1:]
	}
	return n, nil
}

// Write implements api.Socket.
func (s *Socket) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, api.ErrTransportClosed
	}
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	if len(s.quotas) > 0 {
		q := s.quotas[0]
		s.quotas = s.quotas[1:]
		if q == 0 {
			return 0, api.ErrWouldBlock
		}
		if q < len(p) {
			p = p[:q]
		}
	}
	s.written.Write(p)
	return len(p), nil
}

// Close implements api.Socket.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	s.closed = true
	return s.closeErr
}

// FD implements api.Socket.
func (s *Socket) FD() int { return s.fd }

// RemoteAddr implements api.Socket.
func (s *Socket) RemoteAddr() string { return s.remote }

// Written returns everything written so far.
func (s *Socket) Written() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written.String()
}

// Pending reports whether scripted read steps remain.
func (s *Socket) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reads) > 0
}

// Closed reports whether Close was called.
func (s *Socket) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// CloseCalls returns how many times Close was called.
func (s *Socket) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// Listener is a scripted implementation of api.Listener.
type Listener struct {
	mu      sync.Mutex
	fd      int
	pending []acceptStep
	closed  bool
}

type acceptStep struct {
	sock *Socket
	err  error
}

var _ api.Listener = (*Listener)(nil)

// NewListener creates a fake listener reporting fd as its descriptor.
func NewListener(fd int) *Listener {
	return &Listener{fd: fd}
}

// QueueAccept makes a later Accept return sock.
func (l *Listener) QueueAccept(sock *Socket) *Listener {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, acceptStep{sock: sock})
	return l
}

// QueueAcceptError makes a later Accept fail with err.
func (l *Listener) QueueAcceptError(err error) *Listener {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, acceptStep{err: err})
	return l
}

// Accept implements api.Listener. An empty queue reports api.ErrWouldBlock.
func (l *Listener) Accept() (api.Socket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil, api.ErrWouldBlock
	}
	step := l.pending[0]
	l.pending = l.pending[1:]
	if step.err != nil {
		return nil, step.err
	}
	return step.sock, nil
}

// Close implements api.Listener.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// FD implements api.Listener.
func (l *Listener) FD() int { return l.fd }

// Addr implements api.Listener.
func (l *Listener) Addr() string { return fmt.Sprintf("fake-listener:%d", l.fd) }
