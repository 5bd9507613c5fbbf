package seed

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Clients  int           // Number of clients to create
	Vendors  int           // Number of vendors to create
	Projects int           // Number of projects to create
	Workers  int           // Number of concurrent requests
	Timeout  time.Duration // HTTP request timeout
	Seed     uint64        // Random seed; the same seed produces the same data set
	LogFile  string        // Log file for run output
	Verbose  bool          // Enable verbose logging
}

// Client is the client resource as the API reads and writes it.
type Client struct {
	ID           int64  `json:"id,omitempty"`
	CompanyName  string `json:"companyName"`
	ContactEmail string `json:"contactEmail"`
}

// Vendor is the vendor resource as the API reads and writes it.
type Vendor struct {
	ID                 int64           `json:"id,omitempty"`
	Name               string          `json:"name"`
	CountriesSupported []string        `json:"countriesSupported"`
	ServicesOffered    []string        `json:"servicesOffered"`
	Rating             decimal.Decimal `json:"rating"`
	ResponseSLAHours   int             `json:"responseSlaHours"`
	ContactEmail       string          `json:"contactEmail,omitempty"`
	IsActive           bool            `json:"isActive"`
}

// Project is the project resource as the API reads and writes it.
type Project struct {
	ID             int64           `json:"id,omitempty"`
	ClientID       int64           `json:"clientId"`
	Name           string          `json:"name"`
	Country        string          `json:"country"`
	ServicesNeeded []string        `json:"servicesNeeded"`
	Budget         decimal.Decimal `json:"budget"`
	Status         string          `json:"status"`
}

// Match is one row of GET /matches/projects/{id}.
type Match struct {
	ID        int64           `json:"id"`
	ProjectID int64           `json:"projectId"`
	VendorID  int64           `json:"vendorId"`
	Score     decimal.Decimal `json:"score"`
}

// General mirrors GET /analytics/general.
type General struct {
	TotalProjects  int             `json:"totalProjects"`
	ActiveProjects int             `json:"activeProjects"`
	TotalMatches   int             `json:"totalMatches"`
	AvgMatchScore  decimal.Decimal `json:"avgMatchScore"`
	RecentActivity int             `json:"recentActivity"`
}

// Stats holds run statistics.
type Stats struct {
	ClientsCreated    int
	VendorsCreated    int
	ProjectsCreated   int
	ProjectsRebuilt   int
	MatchesCreated    int
	RequestsFailed    int
	ScoresVerified    int
	ScoreMismatches   int
	MissingMatches    int
	UnexpectedMatches int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
