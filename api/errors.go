// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared by the reactor, transport and server packages.

package api

import "errors"

// Common errors used across the module.
var (
	// ErrTransportClosed is returned by I/O on a closed socket.
	ErrTransportClosed = errors.New("transport is closed")

	// ErrWouldBlock reports that a non-blocking call made no progress.
	// It is a non-event: callers re-arm interest and wait.
	ErrWouldBlock = errors.New("operation would block")

	// ErrCapacityExceeded is returned when the connection registry is full.
	ErrCapacityExceeded = errors.New("connection capacity exceeded")

	// ErrInterestMismatch marks a readiness event the connection state does
	// not expect. It is only ever used as a panic value.
	ErrInterestMismatch = errors.New("readiness does not match expected interest")

	// ErrLoopClosed is returned by event loop calls after Close.
	ErrLoopClosed = errors.New("event loop is closed")

	// ErrNotSupported is returned on platforms without a readiness poller.
	ErrNotSupported = errors.New("operation not supported")

	// ErrSlotNotLive marks a lookup of a free registry slot.
	ErrSlotNotLive = errors.New("slot is not live")

	// ErrWrongPhase marks access to a buffer payload the state does not hold.
	ErrWrongPhase = errors.New("buffer state in wrong phase")
)
