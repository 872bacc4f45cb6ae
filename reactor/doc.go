// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the single-threaded readiness event loop. On
// Linux it is backed by epoll with edge-triggered, one-shot registrations;
// other platforms get a stub that reports api.ErrNotSupported.
package reactor
