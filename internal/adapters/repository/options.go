package repository

import (
	"time"

	"github.com/expanders360/vendormatch/pkg/logger"
)

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	log         logger.Logger
	now         func() time.Time
	busyTimeout time.Duration
}

func defaultOptions() options {
	return options{
		now:         time.Now,
		busyTimeout: 5 * time.Second,
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock overrides the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}
