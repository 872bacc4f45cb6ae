// File: pool/slab_pool.go
// Package pool implements fixed-capacity slot allocation.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"fmt"

	"github.com/eapache/queue"
	"github.com/momentics/pingpong/api"
)

// Slab is an arena of fixed slots whose indices double as stable identifiers.
// Indices start at first so that lower values can be reserved by the caller.
//
// Slots that were never used are handed out in ascending order. After that,
// freed slots are reused oldest-freed first, which keeps a just-released
// index out of circulation for as long as possible.
//
// Slab is not safe for concurrent use.
type Slab[T any] struct {
	first int
	slots []slot[T]
	next  int          // lowest never-used slot
	free  *queue.Queue // of int, freed slot offsets
	live  int
}

type slot[T any] struct {
	val  T
	live bool
}

// NewSlab returns an empty slab holding at most capacity values.
func NewSlab[T any](first, capacity int) *Slab[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Slab[T]{
		first: first,
		slots: make([]slot[T], capacity),
		free:  queue.New(),
	}
}

// Insert reserves a slot, builds its value with the slot's index and stores
// it. When fn fails nothing is reserved. It returns api.ErrCapacityExceeded
// when every slot is live.
func (s *Slab[T]) Insert(fn func(idx int) (T, error)) (int, error) {
	var off int
	fromFree := false
	switch {
	case s.next < len(s.slots):
		off = s.next
	case s.free.Length() > 0:
		off = s.free.Peek().(int)
		fromFree = true
	default:
		return 0, api.ErrCapacityExceeded
	}

	v, err := fn(s.first + off)
	if err != nil {
		return 0, err
	}
	if fromFree {
		s.free.Remove()
	} else {
		s.next++
	}
	s.slots[off] = slot[T]{val: v, live: true}
	s.live++
	return s.first + off, nil
}

func (s *Slab[T]) offset(idx int) (int, bool) {
	off := idx - s.first
	if off < 0 || off >= len(s.slots) || !s.slots[off].live {
		return 0, false
	}
	return off, true
}

// Contains reports whether idx holds a live value.
func (s *Slab[T]) Contains(idx int) bool {
	_, ok := s.offset(idx)
	return ok
}

// Get returns the value stored at idx. Looking up a free slot is a caller
// bug and panics with api.ErrSlotNotLive.
func (s *Slab[T]) Get(idx int) T {
	off, ok := s.offset(idx)
	if !ok {
		panic(fmt.Errorf("%w: index %d", api.ErrSlotNotLive, idx))
	}
	return s.slots[off].val
}

// Remove frees idx and returns the value it held.
func (s *Slab[T]) Remove(idx int) (T, bool) {
	off, ok := s.offset(idx)
	if !ok {
		var zero T
		return zero, false
	}
	v := s.slots[off].val
	s.slots[off] = slot[T]{}
	s.free.Add(off)
	s.live--
	return v, true
}

// Len returns the number of live values.
func (s *Slab[T]) Len() int { return s.live }

// Cap returns the fixed slot count.
func (s *Slab[T]) Cap() int { return len(s.slots) }
