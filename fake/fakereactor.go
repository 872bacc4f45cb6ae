// File: fake/fakereactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Recording event loop that delivers readiness events posted by tests.

package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/momentics/pingpong/api"
)

// Registration is the recorded interest of one descriptor.
type Registration struct {
	Handle   api.Handle
	Interest api.Interest
	Mode     api.Mode
	// Armed is false once a one-shot registration has fired and not been
	// re-armed since.
	Armed bool
	// Rearms counts Reregister calls.
	Rearms int
}

type posted struct {
	h  api.Handle
	ev api.Interest
}

// EventLoop is an in-memory api.EventLoop. It never polls anything: tests
// fire registrations explicitly or post events that Run delivers.
type EventLoop struct {
	mu          sync.Mutex
	regs        map[int]*Registration
	queue       []posted
	shutdown    bool
	registerErr error
	rearmErr    error
}

var _ api.EventLoop = (*EventLoop)(nil)

// NewEventLoop returns an empty fake loop.
func NewEventLoop() *EventLoop {
	return &EventLoop{regs: make(map[int]*Registration)}
}

// SetRegisterError makes Register fail with err.
func (l *EventLoop) SetRegisterError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registerErr = err
}

// SetReregisterError makes Reregister fail with err.
func (l *EventLoop) SetReregisterError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rearmErr = err
}

// Register implements api.EventLoop.
func (l *EventLoop) Register(fd int, h api.Handle, interest api.Interest, mode api.Mode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.registerErr != nil {
		return l.registerErr
	}
	if _, ok := l.regs[fd]; ok {
		return fmt.Errorf("fd %d already registered", fd)
	}
	l.regs[fd] = &Registration{Handle: h, Interest: interest, Mode: mode, Armed: true}
	return nil
}

// Reregister implements api.EventLoop.
func (l *EventLoop) Reregister(fd int, h api.Handle, interest api.Interest, mode api.Mode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rearmErr != nil {
		return l.rearmErr
	}
	r, ok := l.regs[fd]
	if !ok {
		return fmt.Errorf("fd %d not registered", fd)
	}
	r.Handle, r.Interest, r.Mode = h, interest, mode
	r.Armed = interest != api.InterestNone
	r.Rearms++
	return nil
}

// Deregister implements api.EventLoop.
func (l *EventLoop) Deregister(fd int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.regs[fd]; !ok {
		return fmt.Errorf("fd %d not registered", fd)
	}
	delete(l.regs, fd)
	return nil
}

// Registration returns a copy of the registration of fd.
func (l *EventLoop) Registration(fd int) (Registration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.regs[fd]
	if !ok {
		return Registration{}, false
	}
	return *r, true
}

// Registered returns the number of registered descriptors.
func (l *EventLoop) Registered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.regs)
}

// Fire consumes the armed interest of fd the way a poller would on
// readiness: one-shot registrations are disarmed. It reports false if fd is
// unknown or disarmed.
func (l *EventLoop) Fire(fd int) (api.Handle, api.Interest, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.regs[fd]
	if !ok || !r.Armed {
		return 0, api.InterestNone, false
	}
	if r.Mode.OneShot() {
		r.Armed = false
	}
	return r.Handle, r.Interest, true
}

// Post queues a readiness event for Run to deliver.
func (l *EventLoop) Post(h api.Handle, ev api.Interest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, posted{h: h, ev: ev})
}

// Run delivers posted events in order until the queue is empty, Shutdown is
// called or ctx is done.
func (l *EventLoop) Run(ctx context.Context, handler api.Handler) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		l.mu.Lock()
		if l.shutdown || len(l.queue) == 0 {
			l.mu.Unlock()
			return nil
		}
		p := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		handler.OnReady(p.h, p.ev)
	}
}

// Shutdown implements api.EventLoop.
func (l *EventLoop) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shutdown = true
}

// IsShutdown reports whether Shutdown was called.
func (l *EventLoop) IsShutdown() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shutdown
}
