package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/expanders360/vendormatch/internal/adapters/mq/queue"
	"github.com/expanders360/vendormatch/internal/adapters/mq/worker"
	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	ch chan queue.Message
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan queue.Message, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Message {
	return mq.ch
}

func (mq *mockQueue) Close() error {
	close(mq.ch)
	return nil
}

type mockSender struct {
	mu   sync.Mutex
	sent []string
	fail map[string]error
}

func newMockSender() *mockSender {
	return &mockSender{fail: make(map[string]error)}
}

func (s *mockSender) Send(_ context.Context, m queue.Message) error { //nolint:gocritic // hugeParam: matches Sender
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.fail[m.ID]; ok {
		return err
	}
	s.sent = append(s.sent, m.ID)
	return nil
}

func (s *mockSender) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func note(id string) model.Notification {
	return model.Notification{ID: id, Kind: model.KindMatch, To: "ops@acme.com"}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue()
		sender := newMockSender()
		w := worker.NewInMemoryWorker(q, sender, worker.WithName("w-test"), worker.WithSendTimeout(time.Second))

		convey.Convey("When messages are queued and the queue closes", func() {
			q.ch <- note("a")
			q.ch <- note("b")
			_ = q.Close()
			w.Run(context.Background())

			convey.Convey("Then every message is delivered in order", func() {
				convey.So(sender.ids(), convey.ShouldResemble, []string{"a", "b"})
			})
		})

		convey.Convey("When a delivery fails", func() {
			sender.fail["a"] = errors.New("smtp down")
			q.ch <- note("a")
			q.ch <- note("b")
			_ = q.Close()
			w.Run(context.Background())

			convey.Convey("Then the failure is dropped and the next message still goes out", func() {
				convey.So(sender.ids(), convey.ShouldResemble, []string{"b"})
			})
		})

		convey.Convey("When the worker is shut down while idle", func() {
			go w.Run(context.Background())
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			convey.Convey("Then it stops promptly", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				w.Run(ctx)
				close(done)
			}()
			cancel()

			convey.Convey("Then Run returns", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		sender := newMockSender()
		pool := worker.NewPool(4, q, sender)
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx := context.Background()
		pool.Start(ctx)

		convey.Convey("When messages are enqueued and the pool shuts down", func() {
			for i := 0; i < 50; i++ {
				convey.So(q.Enqueue(ctx, note(fmt.Sprintf("n%d", i))), convey.ShouldBeTrue)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then everything buffered is delivered", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(sender.ids()), convey.ShouldEqual, 50)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, newMockQueue(), newMockSender())

		convey.Convey("Then it defaults to at least one worker", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
