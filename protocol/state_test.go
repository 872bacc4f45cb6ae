// File: protocol/state_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/momentics/pingpong/api"
)

// drive feeds chunks through the state machine the way a connection does and
// returns everything flushed. Each write sends at most quota bytes.
func drive(t *testing.T, chunks []string, quota int) string {
	t.Helper()
	s := NewState(MaxLine)
	var out strings.Builder
	for _, c := range chunks {
		if s.Phase() != Reading {
			t.Fatalf("feeding %q in phase %s", c, s.Phase())
		}
		n := copy(s.ReadBuf(), c)
		if n != len(c) {
			s.Append([]byte(c))
		} else {
			s.AppendReadable(n)
		}
		s.TryTransitionToWriting()
		for s.Phase() == Writing {
			w := s.WriteBuf()
			if quota > 0 && len(w) > quota {
				w = w[:quota]
			}
			out.Write(w)
			s.Advance(len(w))
			s.TryTransitionToReading()
		}
	}
	return out.String()
}

func TestSingleLineEcho(t *testing.T) {
	if got := drive(t, []string{"ping\n"}, 0); got != "ping\n" {
		t.Errorf("echo = %q, want %q", got, "ping\n")
	}
}

func TestPipelinedLinesDrainWithoutMoreInput(t *testing.T) {
	s := NewState(MaxLine)
	s.Append([]byte("a\nb\nc"))
	if !s.TryTransitionToWriting() {
		t.Fatal("expected transition to writing")
	}
	var lines []string
	for s.Phase() == Writing {
		w := s.WriteBuf()
		lines = append(lines, string(w))
		s.Advance(len(w))
		if !s.TryTransitionToReading() {
			t.Fatal("line fully sent but still writing")
		}
	}
	if diff := cmp.Diff([]string{"a\n", "b\n"}, lines); diff != "" {
		t.Errorf("flushed lines mismatch (-want +got):\n%s", diff)
	}
	if s.Phase() != Reading || s.Buffered() != 1 {
		t.Errorf("state after drain = %s, want reading with 1 buffered", s.String())
	}
	if s.RequiredInterest() != api.InterestReadable {
		t.Errorf("interest = %s, want readable", s.RequiredInterest())
	}
}

func TestPartialLineStaysReading(t *testing.T) {
	s := NewState(MaxLine)
	s.Append([]byte("no newline yet"))
	if s.TryTransitionToWriting() {
		t.Fatal("transitioned without a newline")
	}
	if s.Phase() != Reading || s.Buffered() != len("no newline yet") {
		t.Errorf("state = %s", s.String())
	}
}

func TestPartialWriteKeepsLimit(t *testing.T) {
	s := NewState(MaxLine)
	s.Append([]byte("hello\nworld\n"))
	s.TryTransitionToWriting()
	s.Advance(3)
	if s.TryTransitionToReading() {
		t.Fatal("transitioned before line was sent")
	}
	if got := string(s.WriteBuf()); got != "lo\n" {
		t.Errorf("remaining = %q, want %q", got, "lo\n")
	}
	if s.RequiredInterest() != api.InterestWritable {
		t.Errorf("interest = %s, want writable", s.RequiredInterest())
	}
}

func TestChunkingIsInvisible(t *testing.T) {
	input := "ping\npong\n\nlonger line that exceeds nothing\nx\ntrailing"
	want := "ping\npong\n\nlonger line that exceeds nothing\nx\n"

	for split := 1; split < len(input); split++ {
		for _, quota := range []int{0, 1, 3} {
			got := drive(t, []string{input[:split], input[split:]}, quota)
			if got != want {
				t.Fatalf("split=%d quota=%d: got %q, want %q", split, quota, got, want)
			}
		}
	}

	var bytewise []string
	for i := range input {
		bytewise = append(bytewise, input[i:i+1])
	}
	if got := drive(t, bytewise, 1); got != want {
		t.Errorf("byte-at-a-time: got %q, want %q", got, want)
	}
}

func TestLongLinesGrowBuffer(t *testing.T) {
	line := strings.Repeat("z", 10*MaxLine) + "\n"
	var chunks []string
	for i := 0; i < len(line); i += 100 {
		end := i + 100
		if end > len(line) {
			end = len(line)
		}
		chunks = append(chunks, line[i:end])
	}
	if got := drive(t, append(chunks, line), 7); got != line+line {
		t.Errorf("long line echo mismatch: got %d bytes, want %d", len(got), 2*len(line))
	}
}

func TestSlidingWindowReusesSpace(t *testing.T) {
	s := NewState(MaxLine)
	s.Append([]byte("01234"))
	for i := 0; i < 1000; i++ {
		s.Append([]byte("56789\n01234"))
		if !s.TryTransitionToWriting() {
			t.Fatalf("iteration %d: no line found", i)
		}
		if got := string(s.WriteBuf()); got != "0123456789\n" {
			t.Fatalf("iteration %d: line = %q", i, got)
		}
		s.Advance(len(s.WriteBuf()))
		s.TryTransitionToReading()
	}
	if s.Phase() != Reading || s.Buffered() != 5 {
		t.Errorf("state = %s, want reading with 5 buffered", s.String())
	}
	if c := cap(s.buf); c != MaxLine {
		t.Errorf("buffer capacity = %d, want %d", c, MaxLine)
	}
}

func TestClosedHasNoInterest(t *testing.T) {
	s := NewState(0)
	s.Close()
	if !s.IsClosed() || s.RequiredInterest() != api.InterestNone || s.Buffered() != 0 {
		t.Errorf("closed state = %s", s.String())
	}
}

func TestWrongPhasePanics(t *testing.T) {
	cases := map[string]func(s *State){
		"WriteBuf while reading": func(s *State) { s.WriteBuf() },
		"ReadBuf while writing": func(s *State) {
			s.Append([]byte("x\n"))
			s.TryTransitionToWriting()
			s.ReadBuf()
		},
		"Append after close": func(s *State) {
			s.Close()
			s.Append([]byte("x"))
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, api.ErrWrongPhase) {
					t.Errorf("recovered %v, want ErrWrongPhase", r)
				}
			}()
			s := NewState(MaxLine)
			fn(&s)
		})
	}
}
