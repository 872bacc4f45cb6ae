//go:build !linux
// +build !linux

// File: transport/tcp/tcp_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub for platforms without the raw socket transport.

package tcp

import "github.com/momentics/pingpong/api"

// DefaultBacklog is the listen(2) queue length used when none is given.
const DefaultBacklog = 1024

// Listener is unavailable on this platform.
type Listener struct{}

// Listen always fails with api.ErrNotSupported.
func Listen(addr string, backlog int) (*Listener, error) {
	return nil, api.ErrNotSupported
}

func (*Listener) Accept() (api.Socket, error) { return nil, api.ErrNotSupported }
func (*Listener) FD() int                     { return -1 }
func (*Listener) Addr() string                { return "" }
func (*Listener) Close() error                { return nil }
