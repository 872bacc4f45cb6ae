// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

import "strings"

// Handle identifies a registered socket slot. Handle 0 belongs to the listener.
type Handle uint32

// ServerHandle is permanently reserved for the listening socket.
const ServerHandle Handle = 0

// Interest is a readiness bit set. It is used both for the interest a socket
// is armed with and for the readiness reported back by the event loop.
type Interest uint8

const (
	InterestReadable Interest = 1 << iota
	InterestWritable
	// InterestError is only ever reported, never requested.
	InterestError
)

// InterestNone disarms a one-shot registration.
const InterestNone Interest = 0

// Readable reports whether the readable bit is set.
func (i Interest) Readable() bool { return i&InterestReadable != 0 }

// Writable reports whether the writable bit is set.
func (i Interest) Writable() bool { return i&InterestWritable != 0 }

// Failed reports whether the loop flagged an error or hangup condition.
func (i Interest) Failed() bool { return i&InterestError != 0 }

func (i Interest) String() string {
	if i == InterestNone {
		return "none"
	}
	var parts []string
	if i.Readable() {
		parts = append(parts, "readable")
	}
	if i.Writable() {
		parts = append(parts, "writable")
	}
	if i.Failed() {
		parts = append(parts, "error")
	}
	return strings.Join(parts, "|")
}

// Mode selects the notification discipline of a registration.
type Mode uint8

// ModeLevel re-notifies while the socket stays ready.
const ModeLevel Mode = 0

const (
	// ModeEdge notifies once per readiness transition.
	ModeEdge Mode = 1 << iota
	// ModeOneShot disarms the registration after one notification.
	ModeOneShot
)

// ModeEdgeOneShot is the discipline used for every client connection.
const ModeEdgeOneShot = ModeEdge | ModeOneShot

// Edge reports whether edge triggering is requested.
func (m Mode) Edge() bool { return m&ModeEdge != 0 }

// OneShot reports whether the registration disarms after one notification.
func (m Mode) OneShot() bool { return m&ModeOneShot != 0 }
