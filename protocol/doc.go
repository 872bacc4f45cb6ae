// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the per-connection line protocol state machine.
//
// A connection alternates between two phases sharing one backing buffer:
//   - Reading: bytes are appended until a '\n' is seen
//   - Writing: the first complete line is flushed; bytes after it stay put
//
// Closed is terminal. The buffer moves between phases, it is never copied,
// and consumed bytes are dropped through a sliding window instead of being
// shifted on every line.
package protocol
