// File: api/handler.go
// Package api defines the readiness Handler interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Handler receives readiness notifications from an EventLoop.
type Handler interface {
	OnReady(h Handle, events Interest)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(h Handle, events Interest)

// OnReady calls f(h, events).
func (f HandlerFunc) OnReady(h Handle, events Interest) { f(h, events) }
