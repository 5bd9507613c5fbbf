package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/expanders360/vendormatch/internal/domain/types"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCountryTopVendorsJSON(t *testing.T) {
	Convey("Given a country report", t, func() {
		report := types.CountryTopVendors{
			Country: "Germany",
			TopVendors: []types.VendorRank{
				{VendorID: 3, VendorName: "GEP", AvgMatchScore: decimal.RequireFromString("14.30"), MatchCount: 2},
			},
		}

		Convey("When encoding it", func() {
			b, err := json.Marshal(report)
			So(err, ShouldBeNil)

			Convey("Then it uses camelCase keys", func() {
				So(string(b), ShouldContainSubstring, `"country":"Germany"`)
				So(string(b), ShouldContainSubstring, `"vendorName":"GEP"`)
				So(string(b), ShouldContainSubstring, `"matchCount":2`)
			})
		})
	})
}
