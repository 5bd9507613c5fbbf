package matching

import (
	"time"

	"github.com/expanders360/vendormatch/internal/domain/scoring"
	"github.com/expanders360/vendormatch/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithNotifier sets where created matches are announced.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithScorer overrides the standard scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithStoreTimeout bounds each individual store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.storeTimeout = d
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
