// File: server/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/pingpong/api"
	"github.com/momentics/pingpong/pool"
)

// Registry maps handles to live connections. Handle 0 is never allocated.
type Registry struct {
	slab *pool.Slab[*Connection]
}

// NewRegistry returns a registry with a fixed number of slots.
func NewRegistry(capacity int) *Registry {
	return &Registry{slab: pool.NewSlab[*Connection](int(api.ServerHandle)+1, capacity)}
}

// Insert allocates a handle and stores the connection built for it. It
// returns api.ErrCapacityExceeded when every slot is taken.
func (r *Registry) Insert(factory func(api.Handle) *Connection) (api.Handle, error) {
	idx, err := r.slab.Insert(func(i int) (*Connection, error) {
		return factory(api.Handle(i)), nil
	})
	if err != nil {
		return 0, err
	}
	return api.Handle(idx), nil
}

// Get returns the connection for a live handle and panics otherwise.
func (r *Registry) Get(h api.Handle) *Connection {
	return r.slab.Get(int(h))
}

// Contains reports whether h is live.
func (r *Registry) Contains(h api.Handle) bool {
	return r.slab.Contains(int(h))
}

// Remove frees h and closes its connection.
func (r *Registry) Remove(h api.Handle) error {
	c, ok := r.slab.Remove(int(h))
	if !ok {
		return nil
	}
	return c.Close()
}

// Len returns the number of live connections.
func (r *Registry) Len() int { return r.slab.Len() }

// Cap returns the fixed slot count.
func (r *Registry) Cap() int { return r.slab.Cap() }
