package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/expanders360/vendormatch/internal/domain/model"
)

type fakeQueue struct {
	full bool
	got  []model.Notification
}

func (q *fakeQueue) Enqueue(_ context.Context, n model.Notification) bool { //nolint:gocritic // hugeParam: matches Enqueuer
	if q.full {
		return false
	}
	q.got = append(q.got, n)
	return true
}

type fakeConn struct {
	msgs    []*nats.Msg
	err     error
	drained bool
}

func (c *fakeConn) PublishMsg(m *nats.Msg) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *fakeConn) Drain() error {
	c.drained = true
	return nil
}

var fixed = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func sampleDetail() model.MatchDetail {
	return model.MatchDetail{
		Match: model.Match{ID: 9, ProjectID: 3, VendorID: 4, Score: decimal.RequireFromString("14.3")},
		Project: model.Project{ID: 3, Name: "EU Launch", Country: "Germany",
			Budget: decimal.RequireFromString("50000")},
		Vendor: model.Vendor{ID: 4, Name: "GEP & Co", Rating: decimal.RequireFromString("4.5"),
			ResponseSLAHours: 24},
		ClientEmail: "ops@acme.com",
	}
}

func TestDispatcher(t *testing.T) {
	Convey("Given a dispatcher over a queue", t, func() {
		ctx := context.Background()
		q := &fakeQueue{}
		d := NewDispatcher(q, WithFromEmail("bot@acme.com"), WithClock(func() time.Time { return fixed }))

		Convey("When a match is announced", func() {
			d.NotifyMatch(ctx, sampleDetail())

			Convey("Then a rendered match notification is queued for the client", func() {
				So(len(q.got), ShouldEqual, 1)
				n := q.got[0]
				So(n.ID, ShouldNotBeEmpty)
				So(n.Kind, ShouldEqual, model.KindMatch)
				So(n.To, ShouldEqual, "ops@acme.com")
				So(n.From, ShouldEqual, "bot@acme.com")
				So(n.Subject, ShouldEqual, "New Vendor Match Found - EU Launch")
				So(n.MatchID, ShouldEqual, 9)
				So(n.CreatedAt.Equal(fixed), ShouldBeTrue)
				So(n.Body, ShouldContainSubstring, "<strong>Match Score:</strong> 14.30")
				So(n.Body, ShouldContainSubstring, "$50000.00")
				So(n.Body, ShouldContainSubstring, "4.50/5")
				So(n.Body, ShouldContainSubstring, "GEP &amp; Co")
				So(n.Body, ShouldContainSubstring, "Contact the vendor at: Not provided")
			})
		})

		Convey("When the client has no email", func() {
			m := sampleDetail()
			m.ClientEmail = ""
			d.NotifyMatch(ctx, m)

			Convey("Then the admin address receives it", func() {
				So(q.got[0].To, ShouldEqual, DefaultAdminEmail)
			})
		})

		Convey("When an SLA breach is announced", func() {
			d.NotifySLAWarning(ctx, model.SLABreach{
				Vendor: model.Vendor{ID: 4, Name: "Slow", ResponseSLAHours: 24, ContactEmail: "slow@v.com"},
				Projects: []model.Project{
					{Name: "A", Country: "Germany"},
					{Name: "B", Country: "France"},
				},
				ExpiredMatches: 3,
			})

			Convey("Then the admin gets the project list", func() {
				n := q.got[0]
				So(n.Kind, ShouldEqual, model.KindSLAWarning)
				So(n.To, ShouldEqual, DefaultAdminEmail)
				So(n.Subject, ShouldEqual, "SLA Warning - Response Time Exceeded")
				So(n.Body, ShouldContainSubstring, "<pre>- A (Germany)\n- B (France)</pre>")
				So(n.Body, ShouldContainSubstring, "slow@v.com")
			})
		})

		Convey("When the queue is full", func() {
			q.full = true

			Convey("Then the notification is dropped without panicking", func() {
				So(func() { d.NotifyMatch(ctx, sampleDetail()) }, ShouldNotPanic)
				So(q.got, ShouldBeEmpty)
			})
		})
	})
}

func TestNATSSender(t *testing.T) {
	Convey("Given a NATS sender", t, func() {
		ctx := context.Background()
		conn := &fakeConn{}
		s := newNATSSender(conn, "")

		Convey("When sending a match notification", func() {
			n := model.Notification{ID: "abc", Kind: model.KindMatch, To: "ops@acme.com", Subject: "hi"}
			So(s.Send(ctx, n), ShouldBeNil)

			Convey("Then it is published on the kind subject with a dedupe id", func() {
				So(len(conn.msgs), ShouldEqual, 1)
				msg := conn.msgs[0]
				So(msg.Subject, ShouldEqual, "vendormatch.notifications.match")
				So(msg.Header.Get("Nats-Msg-Id"), ShouldEqual, "abc")

				var got model.Notification
				So(json.Unmarshal(msg.Data, &got), ShouldBeNil)
				So(got.To, ShouldEqual, "ops@acme.com")
			})
		})

		Convey("When publishing fails", func() {
			conn.err = errors.New("no responders")
			err := s.Send(ctx, model.Notification{ID: "x", Kind: model.KindSLAWarning})

			Convey("Then the error is returned", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, conn.err), ShouldBeTrue)
			})
		})

		Convey("When closed", func() {
			So(s.Close(), ShouldBeNil)
			So(conn.drained, ShouldBeTrue)

			Convey("Then sends fail", func() {
				So(s.Send(ctx, model.Notification{ID: "x"}), ShouldEqual, ErrSenderClosed)
				So(s.Close(), ShouldBeNil)
			})
		})
	})
}

func TestLogSender(t *testing.T) {
	Convey("Given a log sender", t, func() {
		s := NewLogSender(nil)

		Convey("Then sending never fails", func() {
			So(s.Send(context.Background(), model.Notification{ID: "x", Kind: model.KindMatch}), ShouldBeNil)
		})
	})
}
