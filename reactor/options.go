// File: reactor/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"io"

	"github.com/sirupsen/logrus"
)

// DefaultMaxEvents bounds the readiness batch fetched per wait.
const DefaultMaxEvents = 1024

type options struct {
	maxEvents int
	cpu       int
	log       logrus.FieldLogger
}

// Option customizes reactor construction.
type Option func(*options)

// WithMaxEvents overrides the per-wait event batch size.
func WithMaxEvents(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEvents = n
		}
	}
}

// WithCPU pins the loop thread to a logical CPU. Negative disables pinning.
func WithCPU(cpu int) Option {
	return func(o *options) {
		o.cpu = cpu
	}
}

// WithLogger sets the logger used for loop lifecycle messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	o := options{maxEvents: DefaultMaxEvents, cpu: -1, log: discard}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
