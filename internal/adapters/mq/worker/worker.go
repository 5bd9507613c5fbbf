// Package worker drains the notification queue and hands each message to a
// Sender.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/expanders360/vendormatch/internal/adapters/mq/queue"
	"github.com/expanders360/vendormatch/pkg/logger"
	"github.com/expanders360/vendormatch/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultSendTimeout  = 10 * time.Second
	poolShutdownTimeout = 30 * time.Second
)

// Message is what workers read off the queue.
type Message = queue.Message

// Sender delivers a single notification.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Queue defines how workers receive messages.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Message
}

// Worker delivers messages using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for delivering notifications.
type InMemoryWorker struct {
	queue       Queue
	sender      Sender
	name        string
	sendTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, sender Sender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		sender:      sender,
		name:        "worker",
		sendTimeout: defaultSendTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Default().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop. It returns when ctx is done, Shutdown is
// called, or the queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	messages := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case m, ok := <-messages:
			if !ok {
				return
			}
			if err := w.deliver(ctx, m); err != nil {
				w.logger.Error(ctx, "notification delivery failed",
					logger.String("id", m.ID),
					logger.String("kind", string(m.Kind)),
					logger.String("to", m.To),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// deliver sends one message. A failed delivery is counted and dropped.
func (w *InMemoryWorker) deliver(ctx context.Context, m Message) error { //nolint:gocritic // hugeParam: Message is passed by value for channel semantics
	start := time.Now()

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()

	if err := w.sender.Send(sendCtx, m); err != nil {
		metrics.RecordNotificationFailed(string(m.Kind), "send_error")
		metrics.RecordErrorByComponent("worker", "send_error")
		return fmt.Errorf("send notification %s: %w", m.ID, err)
	}

	metrics.RecordNotificationSent(string(m.Kind), float64(time.Since(start).Milliseconds()))
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. A non-positive workerCount means one
// worker per CPU.
func NewPool(workerCount int, q Queue, sender Sender, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Default().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, sender, wopts...)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain what is buffered, and waits
// for them to exit.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
