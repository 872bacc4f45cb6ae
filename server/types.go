// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"fmt"

	"github.com/momentics/pingpong/protocol"
)

// Config holds the settings the server itself consumes. Bind address,
// backlog and event batch size belong to the listener and reactor, which
// are built by the caller and injected.
type Config struct {
	MaxConnections int // fixed registry capacity
	MaxLine        int // initial read buffer capacity per connection
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxConnections: 1024,
		MaxLine:        protocol.MaxLine,
	}
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.MaxConnections <= 0:
		return fmt.Errorf("max connections must be positive, got %d", c.MaxConnections)
	case c.MaxLine <= 0:
		return fmt.Errorf("max line must be positive, got %d", c.MaxLine)
	}
	return nil
}
