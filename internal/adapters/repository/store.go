// Package repository persists clients, projects, vendors and matches.
package repository

import (
	"context"
	"time"

	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/shopspring/decimal"
)

// ProjectFilter narrows ListProjects. Zero values match everything.
type ProjectFilter struct {
	ClientID int64
	Status   model.ProjectStatus
}

// Totals is an aggregate snapshot over all projects and matches.
type Totals struct {
	Projects       int64
	ActiveProjects int64
	Matches        int64
	RecentMatches  int64
	AverageScore   decimal.Decimal
}

// Clients stores client records.
type Clients interface {
	CreateClient(ctx context.Context, c *model.Client) error
	// GetClient returns ErrNotFound if the client is unknown.
	GetClient(ctx context.Context, id int64) (model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
}

// Projects stores project records.
type Projects interface {
	CreateProject(ctx context.Context, p *model.Project) error
	// GetProject returns ErrNotFound if the project is unknown.
	GetProject(ctx context.Context, id int64) (model.Project, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error)
	UpdateProject(ctx context.Context, p *model.Project) error
	// DeleteProject removes the project and its matches.
	DeleteProject(ctx context.Context, id int64) error
}

// Vendors stores vendor records and answers eligibility queries.
type Vendors interface {
	CreateVendor(ctx context.Context, v *model.Vendor) error
	// GetVendor returns ErrNotFound if the vendor is unknown.
	GetVendor(ctx context.Context, id int64) (model.Vendor, error)
	// ListVendors returns vendors ordered by id, only active ones if activeOnly.
	ListVendors(ctx context.Context, activeOnly bool) ([]model.Vendor, error)
	UpdateVendor(ctx context.Context, v *model.Vendor) error
	// DeleteVendor removes the vendor and its matches.
	DeleteVendor(ctx context.Context, id int64) error
	// FindEligibleVendors returns active vendors supporting country that offer
	// at least one of services. Order is unspecified.
	FindEligibleVendors(ctx context.Context, country string, services []string) ([]model.Vendor, error)
}

// Matches stores scored project/vendor pairs.
type Matches interface {
	// CreateMatch inserts m, assigning ID and CreatedAt. It returns ErrConflict
	// if the pair already exists.
	CreateMatch(ctx context.Context, m *model.Match) error
	// ReplaceMatches atomically deletes the project's matches and inserts ms,
	// assigning ID and CreatedAt to each element on success. On error the
	// previous set is left untouched.
	ReplaceMatches(ctx context.Context, projectID int64, ms []model.Match) (removed int64, err error)
	// ListMatchesByProject returns the project's matches by score desc.
	ListMatchesByProject(ctx context.Context, projectID int64) ([]model.MatchDetail, error)
	// ListMatches returns every match, newest first.
	ListMatches(ctx context.Context) ([]model.MatchDetail, error)
	// ListMatchesSince returns matches created at or after since, newest first.
	ListMatchesSince(ctx context.Context, since time.Time) ([]model.MatchDetail, error)
	// Totals aggregates counts; RecentMatches counts matches created at or after since.
	Totals(ctx context.Context, since time.Time) (Totals, error)
}

// Store is the full persistence surface.
type Store interface {
	Clients
	Projects
	Vendors
	Matches
	Ping(ctx context.Context) error
	Close() error
}
