// File: protocol/state.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reading/Writing/Closed buffer state machine for newline-delimited echo.

package protocol

import (
	"bytes"
	"fmt"

	"github.com/momentics/pingpong/api"
)

// MaxLine is the initial capacity hint of a fresh read accumulator and the
// minimum free space offered to each read.
const MaxLine = 128

// Phase is the variant tag of State.
type Phase uint8

const (
	Reading Phase = iota
	Writing
	Closed
)

func (p Phase) String() string {
	switch p {
	case Reading:
		return "reading"
	case Writing:
		return "writing"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// State is a tagged variant over one backing buffer.
//
// Live bytes are buf[start:]. In Reading, buf[start:scanned] is known to be
// free of '\n'. In Writing, buf[cursor:limit] is the unsent rest of the
// current line and buf[limit:] belongs to lines not yet flushed.
type State struct {
	phase   Phase
	buf     []byte
	start   int
	scanned int
	cursor  int
	limit   int
}

// NewState returns a Reading state with an empty accumulator.
func NewState(capHint int) State {
	if capHint <= 0 {
		capHint = MaxLine
	}
	return State{phase: Reading, buf: make([]byte, 0, capHint)}
}

// Phase returns the current variant tag.
func (s *State) Phase() Phase { return s.phase }

// IsClosed reports whether the state is terminal.
func (s *State) IsClosed() bool { return s.phase == Closed }

func (s *State) mustBe(p Phase, op string) {
	if s.phase != p {
		panic(fmt.Errorf("%w: %s requires %s, state is %s", api.ErrWrongPhase, op, p, s.phase))
	}
}

// ReadBuf returns free space at the tail of the accumulator, at least
// MaxLine bytes long. Data written into it is committed by AppendReadable.
func (s *State) ReadBuf() []byte {
	s.mustBe(Reading, "ReadBuf")
	if cap(s.buf)-len(s.buf) < MaxLine {
		s.reserve(MaxLine)
	}
	return s.buf[len(s.buf):cap(s.buf)]
}

// reserve makes room for n more bytes. The dead prefix is reclaimed by
// compaction only when it is at least as large as the live region, so every
// copied byte is paid for by a byte already consumed.
func (s *State) reserve(n int) {
	live := len(s.buf) - s.start
	if s.start > 0 && s.start >= live && cap(s.buf)-live >= n {
		copy(s.buf, s.buf[s.start:])
		s.buf = s.buf[:live]
		s.scanned -= s.start
		s.start = 0
		return
	}
	size := 2 * cap(s.buf)
	if size < live+n {
		size = live + n
	}
	grown := make([]byte, live, size)
	copy(grown, s.buf[s.start:])
	s.buf = grown
	s.scanned -= s.start
	s.start = 0
}

// AppendReadable commits n bytes previously written into ReadBuf.
func (s *State) AppendReadable(n int) {
	s.mustBe(Reading, "AppendReadable")
	if n < 0 || len(s.buf)+n > cap(s.buf) {
		panic(fmt.Errorf("protocol: append of %d bytes overflows read buffer", n))
	}
	s.buf = s.buf[:len(s.buf)+n]
}

// Append copies p onto the accumulator.
func (s *State) Append(p []byte) {
	s.mustBe(Reading, "Append")
	if cap(s.buf)-len(s.buf) < len(p) {
		s.reserve(len(p))
	}
	s.buf = append(s.buf, p...)
}

// TryTransitionToWriting looks for the first '\n' in the accumulator. When
// found, the state becomes Writing with the line, newline included, as the
// flushable range. It reports whether the transition happened.
func (s *State) TryTransitionToWriting() bool {
	s.mustBe(Reading, "TryTransitionToWriting")
	i := bytes.IndexByte(s.buf[s.scanned:], '\n')
	if i < 0 {
		s.scanned = len(s.buf)
		return false
	}
	s.phase = Writing
	s.cursor = s.start
	s.limit = s.scanned + i + 1
	return true
}

// WriteBuf returns the unsent part of the current line.
func (s *State) WriteBuf() []byte {
	s.mustBe(Writing, "WriteBuf")
	return s.buf[s.cursor:s.limit]
}

// Advance marks n bytes of WriteBuf as transmitted.
func (s *State) Advance(n int) {
	s.mustBe(Writing, "Advance")
	if n < 0 || s.cursor+n > s.limit {
		panic(fmt.Errorf("protocol: advance of %d bytes past line limit", n))
	}
	s.cursor += n
}

// TryTransitionToReading returns to Reading once the current line is fully
// transmitted. The sent line is dropped, later bytes become the accumulator,
// and the newline scan runs again so a pipelined line goes straight back to
// Writing. It reports whether the line was complete.
func (s *State) TryTransitionToReading() bool {
	s.mustBe(Writing, "TryTransitionToReading")
	if s.cursor < s.limit {
		return false
	}
	s.start, s.scanned = s.limit, s.limit
	s.cursor, s.limit = 0, 0
	if s.start == len(s.buf) {
		s.buf = s.buf[:0]
		s.start, s.scanned = 0, 0
	}
	s.phase = Reading
	s.TryTransitionToWriting()
	return true
}

// RequiredInterest maps the phase to the readiness the connection waits for.
func (s *State) RequiredInterest() api.Interest {
	switch s.phase {
	case Reading:
		return api.InterestReadable
	case Writing:
		return api.InterestWritable
	default:
		return api.InterestNone
	}
}

// Close drops the buffer and enters the terminal phase.
func (s *State) Close() {
	*s = State{phase: Closed}
}

// Buffered returns the number of bytes held and not yet transmitted.
func (s *State) Buffered() int {
	switch s.phase {
	case Reading:
		return len(s.buf) - s.start
	case Writing:
		return len(s.buf) - s.cursor
	default:
		return 0
	}
}

func (s *State) String() string {
	if s.phase == Writing {
		return fmt.Sprintf("%s(pending=%d, buffered=%d)", s.phase, s.limit-s.cursor, s.Buffered())
	}
	return fmt.Sprintf("%s(buffered=%d)", s.phase, s.Buffered())
}
