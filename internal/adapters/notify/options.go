package notify

import (
	"time"

	"github.com/expanders360/vendormatch/pkg/logger"
)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithAdminEmail sets the fallback and SLA warning recipient.
func WithAdminEmail(addr string) Option {
	return func(d *Dispatcher) {
		if addr != "" {
			d.adminEmail = addr
		}
	}
}

// WithFromEmail sets the sender address stamped on every notification.
func WithFromEmail(addr string) Option {
	return func(d *Dispatcher) {
		if addr != "" {
			d.fromEmail = addr
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}
