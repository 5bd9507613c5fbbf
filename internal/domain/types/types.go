// Package types contains report shapes shared by the domain and the API.
package types

import "github.com/shopspring/decimal"

// VendorRank is one vendor's standing within a country.
type VendorRank struct {
	VendorID      int64           `json:"vendorId"`
	VendorName    string          `json:"vendorName"`
	AvgMatchScore decimal.Decimal `json:"avgMatchScore"`
	MatchCount    int             `json:"matchCount"`
}

// CountryTopVendors lists the best vendors for one country.
type CountryTopVendors struct {
	Country    string       `json:"country"`
	TopVendors []VendorRank `json:"topVendors"`
}

// GeneralAnalytics is the system-wide summary.
type GeneralAnalytics struct {
	TotalProjects  int64           `json:"totalProjects"`
	ActiveProjects int64           `json:"activeProjects"`
	TotalMatches   int64           `json:"totalMatches"`
	AvgMatchScore  decimal.Decimal `json:"avgMatchScore"`
	RecentActivity int64           `json:"recentActivity"`
}
