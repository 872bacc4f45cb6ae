//go:build linux
// +build linux

// File: transport/tcp/listener_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/momentics/pingpong/api"
	"golang.org/x/sys/unix"
)

// DefaultBacklog is the listen(2) queue length used when none is given.
const DefaultBacklog = 1024

// Listener is a non-blocking listening socket.
type Listener struct {
	fd     int
	addr   string
	closed atomic.Bool
}

var _ api.Listener = (*Listener)(nil)

// Listen binds addr ("host:port") and starts listening without blocking.
func Listen(addr string, backlog int) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", addr, err)
	}
	if backlog <= 0 {
		backlog = DefaultBacklog
	}

	family, sa, err := toSockaddr(tcpAddr)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	return &Listener{fd: fd, addr: sockaddrString(bound)}, nil
}

func toSockaddr(a *net.TCPAddr) (int, unix.Sockaddr, error) {
	if a.IP == nil || a.IP.To4() != nil {
		sa := &unix.SockaddrInet4{Port: a.Port}
		if a.IP != nil {
			copy(sa.Addr[:], a.IP.To4())
		}
		return unix.AF_INET, sa, nil
	}
	if ip6 := a.IP.To16(); ip6 != nil {
		sa := &unix.SockaddrInet6{Port: a.Port}
		copy(sa.Addr[:], ip6)
		return unix.AF_INET6, sa, nil
	}
	return 0, nil, fmt.Errorf("unsupported address %v", a)
}

func sockaddrString(sa unix.Sockaddr) string {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return (&net.TCPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}).String()
	case *unix.SockaddrInet6:
		return (&net.TCPAddr{IP: net.IP(v.Addr[:]), Port: v.Port}).String()
	default:
		return "unknown"
	}
}

// Accept takes one pending connection. It returns api.ErrWouldBlock when
// the backlog is empty. Connections aborted before they were taken are
// skipped.
func (l *Listener) Accept() (api.Socket, error) {
	for {
		nfd, sa, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch err {
		case nil:
			_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
			return newConn(nfd, sockaddrString(sa)), nil
		case unix.EINTR, unix.ECONNABORTED:
			continue
		case unix.EAGAIN:
			return nil, api.ErrWouldBlock
		default:
			return nil, fmt.Errorf("accept: %w", err)
		}
	}
}

// FD returns the listening descriptor.
func (l *Listener) FD() int { return l.fd }

// Addr returns the bound address, with the kernel-chosen port if 0 was asked.
func (l *Listener) Addr() string { return l.addr }

// Close closes the listening socket.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(l.fd)
}
