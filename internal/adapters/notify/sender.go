package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/expanders360/vendormatch/pkg/logger"
)

// DefaultSubjectPrefix is the NATS subject root for notifications.
const DefaultSubjectPrefix = "vendormatch.notifications"

// ErrSenderClosed is returned by Send after Close.
var ErrSenderClosed = errors.New("notify: sender closed")

type publisher interface {
	PublishMsg(m *nats.Msg) error
	Drain() error
}

// NATSSender publishes notifications as JSON to <prefix>.<kind>. Delivery to
// the mailbox is left to whoever subscribes.
type NATSSender struct {
	conn   publisher
	prefix string
}

// NewNATSSender connects to url and returns a sender publishing under prefix.
func NewNATSSender(url, prefix string) (*NATSSender, error) {
	conn, err := nats.Connect(url,
		nats.Name("vendormatch-notify"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return newNATSSender(conn, prefix), nil
}

func newNATSSender(conn publisher, prefix string) *NATSSender {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSSender{conn: conn, prefix: prefix}
}

// Subject returns the subject a notification of kind is published on.
func (s *NATSSender) Subject(kind model.NotificationKind) string {
	return s.prefix + "." + string(kind)
}

// Send publishes m. The notification id doubles as the JetStream dedupe id.
func (s *NATSSender) Send(ctx context.Context, m model.Notification) error { //nolint:gocritic // hugeParam: Sender contract takes a value
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.conn == nil {
		return ErrSenderClosed
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	msg := nats.NewMsg(s.Subject(m.Kind))
	msg.Header.Set(nats.MsgIdHdr, m.ID)
	msg.Data = data
	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Close drains the connection.
func (s *NATSSender) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Drain()
	s.conn = nil
	return err
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	logger logger.Logger
}

// NewLogSender creates a LogSender. A nil logger uses the global one.
func NewLogSender(l logger.Logger) *LogSender {
	if l == nil {
		l = logger.Default().Named("notify")
	}
	return &LogSender{logger: l}
}

// Send logs the envelope of m.
func (s *LogSender) Send(ctx context.Context, m model.Notification) error { //nolint:gocritic // hugeParam: Sender contract takes a value
	s.logger.Info(ctx, "notification (no transport configured)",
		logger.String("id", m.ID),
		logger.String("kind", string(m.Kind)),
		logger.String("from", m.From),
		logger.String("to", m.To),
		logger.String("subject", m.Subject),
		logger.Int64("project_id", m.ProjectID),
		logger.Int64("vendor_id", m.VendorID),
	)
	return nil
}
