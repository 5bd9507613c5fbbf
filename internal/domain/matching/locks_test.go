package matching

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKeyedLocks(t *testing.T) {
	Convey("Given keyed locks", t, func() {
		k := newKeyedLocks()
		ctx := context.Background()

		Convey("When a key is held", func() {
			unlock, err := k.lock(ctx, 1)
			So(err, ShouldBeNil)

			Convey("Then another key is free", func() {
				other, err := k.lock(ctx, 2)
				So(err, ShouldBeNil)
				other()
			})

			Convey("Then the same key blocks until the deadline", func() {
				tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
				defer cancel()
				_, err := k.lock(tctx, 1)
				So(err, ShouldEqual, context.DeadlineExceeded)
			})

			Convey("Then releasing frees the key and drops the entry", func() {
				unlock()
				again, err := k.lock(ctx, 1)
				So(err, ShouldBeNil)
				again()
				So(k.len(), ShouldEqual, 0)
			})
		})
	})
}
