//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for platforms without epoll.

package reactor

import (
	"context"

	"github.com/momentics/pingpong/api"
)

// Reactor is unavailable on this platform.
type Reactor struct{}

var _ api.EventLoop = (*Reactor)(nil)

// New always fails with api.ErrNotSupported.
func New(opts ...Option) (*Reactor, error) {
	_ = buildOptions(opts)
	return nil, api.ErrNotSupported
}

// Register implements api.EventLoop.
func (*Reactor) Register(int, api.Handle, api.Interest, api.Mode) error {
	return api.ErrNotSupported
}

// Reregister implements api.EventLoop.
func (*Reactor) Reregister(int, api.Handle, api.Interest, api.Mode) error {
	return api.ErrNotSupported
}

// Deregister implements api.EventLoop.
func (*Reactor) Deregister(int) error {
	return api.ErrNotSupported
}

// Run implements api.EventLoop.
func (*Reactor) Run(context.Context, api.Handler) error {
	return api.ErrNotSupported
}

// Shutdown implements api.EventLoop.
func (*Reactor) Shutdown() {}

// Close releases nothing on this platform.
func (*Reactor) Close() error {
	return nil
}
