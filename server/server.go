// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server owns the listening socket and the connection registry, and
// dispatches readiness events from the event loop.

package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/momentics/pingpong/api"
	"github.com/sirupsen/logrus"
)

// Server is the api.Handler driven by the event loop. All methods except
// Serve are called on the loop goroutine.
type Server struct {
	cfg       *Config
	loop      api.EventLoop
	ln        api.Listener
	conns     *Registry
	log       logrus.FieldLogger
	acceptErr error
}

var _ api.Handler = (*Server)(nil)

// New builds a Server over an already constructed loop and listener.
func New(cfg *Config, loop api.EventLoop, ln api.Listener, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:   cfg,
		loop:  loop,
		ln:    ln,
		conns: NewRegistry(cfg.MaxConnections),
		log:   discardLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Serve registers the listener and runs the event loop. It returns nil
// when ctx is done and the accept error if accepting failed.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.loop.Register(s.ln.FD(), api.ServerHandle, api.InterestReadable, api.ModeEdge); err != nil {
		return fmt.Errorf("register listener: %w", err)
	}
	s.log.Infof("running pingpong server; addr=%s", s.ln.Addr())

	if err := s.loop.Run(ctx, s); err != nil {
		return fmt.Errorf("event loop: %w", err)
	}
	return s.acceptErr
}

// Addr returns the listener address.
func (s *Server) Addr() string { return s.ln.Addr() }

// Conns returns the number of live connections.
func (s *Server) Conns() int { return s.conns.Len() }

// OnReady dispatches one readiness notification.
func (s *Server) OnReady(h api.Handle, events api.Interest) {
	if h == api.ServerHandle {
		if !events.Readable() && !events.Failed() {
			panic(fmt.Errorf("%w: listener got %s", api.ErrInterestMismatch, events))
		}
		s.onServerReadable()
		return
	}

	c := s.conns.Get(h)
	c.Ready(s.loop, events)
	if c.IsClosed() {
		s.reap(h)
	}
}

// onServerReadable accepts until the backlog is empty. The listener is
// edge-triggered, so stopping early would strand pending connections.
func (s *Server) onServerReadable() {
	s.log.Debug("the server socket is ready to accept a connection")
	for accepted := 0; ; accepted++ {
		sock, err := s.ln.Accept()
		switch {
		case err == nil:
			s.admit(sock)
		case errors.Is(err, api.ErrWouldBlock):
			if accepted == 0 {
				s.log.Debug("the server socket wasn't actually ready")
			}
			return
		default:
			s.log.WithError(err).Error("encountered error while accepting connection")
			s.acceptErr = fmt.Errorf("accept: %w", err)
			s.loop.Shutdown()
			return
		}
	}
}

func (s *Server) admit(sock api.Socket) {
	h, err := s.conns.Insert(func(h api.Handle) *Connection {
		return newConnection(sock, h, s.cfg.MaxLine, s.log)
	})
	if err != nil {
		s.log.WithError(err).WithField("remote", sock.RemoteAddr()).Warn("refusing connection")
		if cerr := sock.Close(); cerr != nil {
			s.log.WithError(cerr).Debug("close of refused socket failed")
		}
		return
	}

	if err := s.loop.Register(sock.FD(), h, api.InterestReadable, api.ModeEdgeOneShot); err != nil {
		s.log.WithError(err).WithField("handle", h).Warn("registering client socket failed")
		if err := s.conns.Remove(h); err != nil {
			s.log.WithError(err).WithField("handle", h).Warn("closing client socket failed")
		}
		return
	}
	s.log.WithFields(logrus.Fields{"handle": h, "remote": sock.RemoteAddr()}).Info("accepted a new client socket")
}

// reap drops a closed connection from the loop and the registry.
func (s *Server) reap(h api.Handle) {
	c := s.conns.Get(h)
	if err := s.loop.Deregister(c.sock.FD()); err != nil {
		s.log.WithError(err).WithField("handle", h).Debug("deregister failed")
	}
	if err := s.conns.Remove(h); err != nil {
		s.log.WithError(err).WithField("handle", h).Warn("closing client socket failed")
	}
	s.log.WithField("handle", h).Info("connection closed")
}
