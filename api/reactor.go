// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract interface of the readiness event loop that
// multiplexes sockets onto a single dispatch thread.

package api

import "context"

// EventLoop is a single-threaded readiness poller.
type EventLoop interface {
	// Register adds fd to the interest set under handle h.
	Register(fd int, h Handle, interest Interest, mode Mode) error

	// Reregister re-arms fd. With ModeOneShot the caller must call it again
	// after every notification or the socket will never be reported again.
	Reregister(fd int, h Handle, interest Interest, mode Mode) error

	// Deregister removes fd from the interest set.
	Deregister(fd int) error

	// Run dispatches readiness to handler until ctx is done or Shutdown is
	// called. Handler callbacks always run on the goroutine that called Run.
	Run(ctx context.Context, handler Handler) error

	// Shutdown stops Run. It is safe to call from any goroutine.
	Shutdown()
}
