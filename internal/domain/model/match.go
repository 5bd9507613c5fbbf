package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Match is a scored pairing of one project with one vendor.
// At most one match exists per (ProjectID, VendorID).
type Match struct {
	ID        int64
	ProjectID int64
	VendorID  int64
	Score     decimal.Decimal
	Notes     string
	CreatedAt time.Time
}

// MatchDetail is a match joined with its project and vendor.
type MatchDetail struct {
	Match
	Project Project
	Vendor  Vendor
	// ClientEmail is the owning client's contact address, empty when unknown.
	ClientEmail string
}

// SLABreach is derived at scan time and never persisted: a vendor with matches
// created longer ago than its response SLA.
type SLABreach struct {
	Vendor         Vendor
	Projects       []Project
	ExpiredMatches int
	Threshold      time.Time
}
