// Package queue buffers notifications between the code that produces them
// and the workers that deliver them.
//
// The only implementation is an in-memory bounded queue; a full queue drops
// the message rather than blocking the producer.
package queue

import (
	"context"
	"sync"

	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/expanders360/vendormatch/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Message is the payload type flowing through the queue.
type Message = model.Notification

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a message to the queue.
	// Returns false if the queue is full or closed and the message was dropped.
	Enqueue(ctx context.Context, m Message) bool

	// Dequeue returns a channel that receives messages as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Message

	// Len returns the current number of queued messages.
	Len(ctx context.Context) int

	// Close stops accepting messages. Already queued messages stay readable.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	messages chan Message
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.messages = make(chan Message, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a message to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m Message) bool { //nolint:gocritic // hugeParam: Message is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return false
	}

	select {
	case q.messages <- m:
		metrics.RecordNotificationEnqueued(string(m.Kind))
		q.updateGauges()
		return true
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives messages as they become available.
// A message taken off the queue when ctx ends is put back for the next reader.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Message {
	out := make(chan Message)
	go func() {
		defer close(out)
		for m := range q.messages {
			q.updateGauges()
			select {
			case out <- m:
			case <-ctx.Done():
				q.requeue(m)
				return
			}
		}
	}()
	return out
}

// requeue returns m to the tail of the queue. Once the queue is closed or
// full, m is counted as a failed notification instead.
func (q *InMemoryQueue) requeue(m Message) { //nolint:gocritic // hugeParam: Message is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.closed {
		select {
		case q.messages <- m:
			q.updateGauges()
			return
		default:
		}
	}
	metrics.RecordNotificationFailed(string(m.Kind), "cancelled")
	metrics.RecordErrorByComponent("queue", "dequeue_cancelled")
}

// Len returns the current number of queued messages.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.updateGauges()
}

func (q *InMemoryQueue) updateGauges() int {
	size := len(q.messages)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.messages)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
