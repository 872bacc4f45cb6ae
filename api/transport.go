// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the non-blocking socket abstraction consumed by connections and
// the acceptor, so both can be driven by fakes in tests.

package api

// Socket is a full-duplex, non-blocking stream socket.
//
// Read returns (0, nil) once the peer has closed its side. Read and Write
// return ErrWouldBlock when no progress is possible right now.
type Socket interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error

	// FD returns the descriptor used for event loop registration.
	FD() int

	// RemoteAddr returns the peer address for logging.
	RemoteAddr() string
}

// Listener is a non-blocking acceptor.
type Listener interface {
	// Accept returns ErrWouldBlock when no connection is pending.
	Accept() (Socket, error)
	Close() error
	FD() int
	Addr() string
}
