// Package notify turns match and SLA events into notifications and delivers
// them asynchronously.
//
// The Dispatcher renders a message and drops it on the queue; workers pick it
// up and hand it to a Sender (NATS when configured, the log otherwise).
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/expanders360/vendormatch/pkg/logger"
	"github.com/expanders360/vendormatch/pkg/metrics"
)

// Default addresses used when nothing is configured.
const (
	DefaultAdminEmail = "admin@expanders360.com"
	DefaultFromEmail  = "noreply@expanders360.com"
)

// Enqueuer accepts rendered notifications without blocking.
type Enqueuer interface {
	Enqueue(ctx context.Context, m model.Notification) bool
}

// Dispatcher implements the match and SLA notifier contracts on top of a queue.
type Dispatcher struct {
	queue      Enqueuer
	adminEmail string
	fromEmail  string
	now        func() time.Time
	logger     logger.Logger
}

// NewDispatcher creates a dispatcher writing to q.
func NewDispatcher(q Enqueuer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:      q,
		adminEmail: DefaultAdminEmail,
		fromEmail:  DefaultFromEmail,
		now:        time.Now,
		logger:     logger.Default().Named("notify"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NotifyMatch tells the project's client about a new vendor match. Clients
// without a contact email are routed to the admin address.
func (d *Dispatcher) NotifyMatch(ctx context.Context, m model.MatchDetail) { //nolint:gocritic // hugeParam: notifier contract takes a value
	body, err := render(matchBody, &m)
	if err != nil {
		d.drop(ctx, model.KindMatch, "render_error", err)
		return
	}
	to := m.ClientEmail
	if to == "" {
		to = d.adminEmail
	}
	d.enqueue(ctx, model.Notification{
		Kind:      model.KindMatch,
		To:        to,
		Subject:   matchSubject(&m),
		Body:      body,
		ProjectID: m.ProjectID,
		VendorID:  m.VendorID,
		MatchID:   m.ID,
	})
}

// NotifySLAWarning tells the admin that a vendor has matches past its SLA.
func (d *Dispatcher) NotifySLAWarning(ctx context.Context, b model.SLABreach) { //nolint:gocritic // hugeParam: notifier contract takes a value
	body, err := render(slaBody, &b)
	if err != nil {
		d.drop(ctx, model.KindSLAWarning, "render_error", err)
		return
	}
	d.enqueue(ctx, model.Notification{
		Kind:     model.KindSLAWarning,
		To:       d.adminEmail,
		Subject:  slaWarningSubject,
		Body:     body,
		VendorID: b.Vendor.ID,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, n model.Notification) { //nolint:gocritic // hugeParam: queued by value
	n.ID = uuid.NewString()
	n.From = d.fromEmail
	n.CreatedAt = d.now().UTC()

	if !d.queue.Enqueue(ctx, n) {
		d.drop(ctx, n.Kind, "queue_full", nil,
			logger.String("id", n.ID),
			logger.String("to", n.To),
			logger.String("subject", n.Subject),
		)
		return
	}
	d.logger.Debug(ctx, "notification queued",
		logger.String("id", n.ID),
		logger.String("kind", string(n.Kind)),
		logger.String("to", n.To),
	)
}

func (d *Dispatcher) drop(ctx context.Context, kind model.NotificationKind, reason string, err error, fields ...logger.Field) {
	metrics.RecordNotificationFailed(string(kind), reason)
	fields = append(fields, logger.String("kind", string(kind)), logger.String("reason", reason))
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	d.logger.Error(ctx, "notification dropped", fields...)
}
