package worker

import (
	"github.com/okian/busmaybe/pkg/logger"
)

// Option configures a worker or a pool.
type Option func(*settings)

type settings struct {
	name   string
	logger logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{name: "worker", logger: logger.Nop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
