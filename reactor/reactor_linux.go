//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based reactor implementation.

package reactor

import (
	"context"
	"encoding/binary"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/momentics/pingpong/affinity"
	"github.com/momentics/pingpong/api"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// wakeToken tags the internal eventfd. Handles are unsigned so it never
// collides with a registered socket.
const wakeToken int32 = -1

// Reactor is an epoll event loop. The handle of each registration travels in
// the epoll user data, so dispatch needs no descriptor lookup.
type Reactor struct {
	epfd     int
	wakefd   int
	events   []unix.EpollEvent
	cpu      int
	log      logrus.FieldLogger
	stopping atomic.Bool
	closed   atomic.Bool
}

var _ api.EventLoop = (*Reactor)(nil)

// New creates the epoll instance and its shutdown eventfd.
func New(opts ...Option) (*Reactor, error) {
	o := buildOptions(opts)

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("eventfd create: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: wakeToken}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add eventfd: %w", err)
	}

	return &Reactor{
		epfd:   epfd,
		wakefd: wakefd,
		events: make([]unix.EpollEvent, o.maxEvents),
		cpu:    o.cpu,
		log:    o.log,
	}, nil
}

func epollMask(interest api.Interest, mode api.Mode) uint32 {
	var m uint32
	if interest.Readable() {
		m |= unix.EPOLLIN
	}
	if interest.Writable() {
		m |= unix.EPOLLOUT
	}
	if mode.Edge() {
		m |= unix.EPOLLET
	}
	if mode.OneShot() {
		m |= unix.EPOLLONESHOT
	}
	return m
}

func readiness(m uint32) api.Interest {
	var ev api.Interest
	if m&unix.EPOLLIN != 0 {
		ev |= api.InterestReadable
	}
	if m&unix.EPOLLOUT != 0 {
		ev |= api.InterestWritable
	}
	if m&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		ev |= api.InterestError
	}
	return ev
}

func (r *Reactor) ctl(op, fd int, h api.Handle, interest api.Interest, mode api.Mode) error {
	if r.closed.Load() {
		return api.ErrLoopClosed
	}
	ev := unix.EpollEvent{Events: epollMask(interest, mode), Fd: int32(h)}
	return unix.EpollCtl(r.epfd, op, fd, &ev)
}

// Register adds fd under handle h.
func (r *Reactor) Register(fd int, h api.Handle, interest api.Interest, mode api.Mode) error {
	if err := r.ctl(unix.EPOLL_CTL_ADD, fd, h, interest, mode); err != nil {
		return fmt.Errorf("epoll ctl add fd=%d: %w", fd, err)
	}
	return nil
}

// Reregister re-arms fd. InterestNone leaves a one-shot registration disarmed.
func (r *Reactor) Reregister(fd int, h api.Handle, interest api.Interest, mode api.Mode) error {
	if err := r.ctl(unix.EPOLL_CTL_MOD, fd, h, interest, mode); err != nil {
		return fmt.Errorf("epoll ctl mod fd=%d: %w", fd, err)
	}
	return nil
}

// Deregister removes fd from the interest set.
func (r *Reactor) Deregister(fd int) error {
	if r.closed.Load() {
		return api.ErrLoopClosed
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del fd=%d: %w", fd, err)
	}
	return nil
}

// Run waits for readiness and dispatches it to handler on the calling
// goroutine, which stays locked to its OS thread. A thread pinned with
// WithCPU is never handed back to the scheduler. It returns nil after
// Shutdown or once ctx is done.
func (r *Reactor) Run(ctx context.Context, handler api.Handler) error {
	if r.closed.Load() {
		return api.ErrLoopClosed
	}
	runtime.LockOSThread()
	if !r.pin() {
		defer runtime.UnlockOSThread()
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.Shutdown()
		case <-done:
		}
	}()

	r.log.Debug("event loop running")
	for !r.stopping.Load() {
		n, err := unix.EpollWait(r.epfd, r.events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("epoll wait: %w", err)
		}
		for i := 0; i < n; i++ {
			if r.stopping.Load() {
				break
			}
			ev := r.events[i]
			if ev.Fd == wakeToken {
				r.drainWake()
				continue
			}
			handler.OnReady(api.Handle(uint32(ev.Fd)), readiness(ev.Events))
		}
	}
	r.log.Debug("event loop stopped")
	return nil
}

func (r *Reactor) pin() bool {
	if r.cpu < 0 {
		return false
	}
	if err := affinity.SetAffinity(r.cpu); err != nil {
		r.log.WithError(err).Warn("cpu pinning failed, running unpinned")
		return false
	}
	r.log.Debugf("event loop pinned to cpu %d", r.cpu)
	return true
}

func (r *Reactor) drainWake() {
	var b [8]byte
	for {
		if _, err := unix.Read(r.wakefd, b[:]); err != nil {
			return
		}
	}
}

// Shutdown makes Run return after the callback in progress, if any.
func (r *Reactor) Shutdown() {
	if !r.stopping.CompareAndSwap(false, true) || r.closed.Load() {
		return
	}
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], 1)
	if _, err := unix.Write(r.wakefd, b[:]); err != nil && err != unix.EAGAIN {
		r.log.WithError(err).Warn("event loop wakeup failed")
	}
}

// Close releases the epoll instance and the eventfd.
func (r *Reactor) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.stopping.Store(true)
	werr := unix.Close(r.wakefd)
	if err := unix.Close(r.epfd); err != nil {
		return fmt.Errorf("epoll close: %w", err)
	}
	if werr != nil {
		return fmt.Errorf("eventfd close: %w", werr)
	}
	return nil
}
