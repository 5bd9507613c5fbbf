package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/expanders360/vendormatch/internal/adapters/repository"
	"github.com/expanders360/vendormatch/internal/domain/analytics"
	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func detail(country string, vendorID int64, vendor, score string) model.MatchDetail {
	return model.MatchDetail{
		Match:   model.Match{VendorID: vendorID, Score: decimal.RequireFromString(score)},
		Project: model.Project{Country: country},
		Vendor:  model.Vendor{ID: vendorID, Name: vendor},
	}
}

func TestTopVendors(t *testing.T) {
	Convey("Given matches across two countries", t, func() {
		ms := []model.MatchDetail{
			detail("Germany", 1, "A", "10.00"),
			detail("Germany", 1, "A", "12.00"),
			detail("Germany", 2, "B", "14.30"),
			detail("Germany", 3, "C", "9.00"),
			detail("Germany", 4, "D", "11.00"),
			detail("France", 5, "E", "7.333"),
			detail("France", 6, "F", "7.333"),
		}

		Convey("When ranking the top 3", func() {
			got := analytics.TopVendors(ms, 3)

			Convey("Then countries are sorted and capped at three vendors", func() {
				So(len(got), ShouldEqual, 2)
				So(got[0].Country, ShouldEqual, "France")
				So(got[1].Country, ShouldEqual, "Germany")
				So(len(got[1].TopVendors), ShouldEqual, 3)
			})

			Convey("Then vendors are ordered by average score", func() {
				de := got[1].TopVendors
				So(de[0].VendorName, ShouldEqual, "B")
				So(de[1].VendorName, ShouldEqual, "A")
				So(de[1].AvgMatchScore.StringFixed(2), ShouldEqual, "11.00")
				So(de[1].MatchCount, ShouldEqual, 2)
				So(de[2].VendorName, ShouldEqual, "D")
			})

			Convey("Then ties fall back to vendor id and averages are rounded", func() {
				fr := got[0].TopVendors
				So(fr[0].VendorID, ShouldEqual, 5)
				So(fr[0].AvgMatchScore.String(), ShouldEqual, "7.33")
			})
		})

		Convey("When there are no matches", func() {
			So(analytics.TopVendors(nil, 3), ShouldBeEmpty)
		})
	})
}

func TestService(t *testing.T) {
	Convey("Given a store with old and new matches", t, func() {
		ctx := context.Background()
		now := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
		store := repository.NewMemoryStore()

		p := model.Project{Name: "P", Country: "Germany", ServicesNeeded: []string{"x"}, Status: model.StatusActive}
		q := model.Project{Name: "Q", Country: "Germany", ServicesNeeded: []string{"x"}, Status: model.StatusPending}
		So(store.CreateProject(ctx, &p), ShouldBeNil)
		So(store.CreateProject(ctx, &q), ShouldBeNil)
		v := model.Vendor{Name: "V", CountriesSupported: []string{"Germany"}, ServicesOffered: []string{"x"},
			Rating: decimal.NewFromInt(4), ResponseSLAHours: 24, IsActive: true}
		So(store.CreateVendor(ctx, &v), ShouldBeNil)
		So(store.CreateMatch(ctx, &model.Match{ProjectID: p.ID, VendorID: v.ID,
			Score: decimal.RequireFromString("10.00"), CreatedAt: now.Add(-40 * 24 * time.Hour)}), ShouldBeNil)
		So(store.CreateMatch(ctx, &model.Match{ProjectID: q.ID, VendorID: v.ID,
			Score: decimal.RequireFromString("12.50"), CreatedAt: now.Add(-24 * time.Hour)}), ShouldBeNil)

		svc := analytics.NewService(store, analytics.WithClock(func() time.Time { return now }))

		Convey("When asking for top vendors", func() {
			got, err := svc.TopVendorsByCountry(ctx)
			So(err, ShouldBeNil)

			Convey("Then only the last 30 days count", func() {
				So(len(got), ShouldEqual, 1)
				So(got[0].TopVendors[0].MatchCount, ShouldEqual, 1)
				So(got[0].TopVendors[0].AvgMatchScore.StringFixed(2), ShouldEqual, "12.50")
			})
		})

		Convey("When asking for general totals", func() {
			g, err := svc.General(ctx)
			So(err, ShouldBeNil)

			Convey("Then counts and averages cover everything", func() {
				So(g.TotalProjects, ShouldEqual, 2)
				So(g.ActiveProjects, ShouldEqual, 1)
				So(g.TotalMatches, ShouldEqual, 2)
				So(g.AvgMatchScore.StringFixed(2), ShouldEqual, "11.25")
				So(g.RecentActivity, ShouldEqual, 1)
			})
		})
	})
}
