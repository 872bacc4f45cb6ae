// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp provides non-blocking TCP listener and stream sockets built
// directly on file descriptors, suitable for registration with the reactor.
// Would-block conditions surface as api.ErrWouldBlock instead of parking a
// goroutine.
package tcp
