// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

// Project statuses.
const (
	StatusActive    ProjectStatus = "active"
	StatusPending   ProjectStatus = "pending"
	StatusCompleted ProjectStatus = "completed"
	StatusCancelled ProjectStatus = "cancelled"
)

// Validation errors for domain entities.
var (
	ErrInvalidProject = errors.New("invalid project")
	ErrInvalidVendor  = errors.New("invalid vendor")
	ErrInvalidClient  = errors.New("invalid client")
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ParseProjectStatus parses a status string; empty input maps to active.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	st := ProjectStatus(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return StatusActive, nil
	}
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidProject, s)
	}
	return st, nil
}

// Project is a client's expansion project.
type Project struct {
	ID             int64
	ClientID       int64
	Name           string
	Description    string
	Country        string
	ServicesNeeded []string
	Budget         decimal.Decimal
	Status         ProjectStatus
	StartDate      *time.Time
	EndDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the fields required for persistence.
func (p *Project) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalidProject)
	case strings.TrimSpace(p.Country) == "":
		return fmt.Errorf("%w: missing country", ErrInvalidProject)
	case len(p.ServicesNeeded) == 0:
		return fmt.Errorf("%w: at least one service is required", ErrInvalidProject)
	case p.Budget.IsNegative():
		return fmt.Errorf("%w: budget must not be negative", ErrInvalidProject)
	case !p.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProject, p.Status)
	case p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate):
		return fmt.Errorf("%w: end date before start date", ErrInvalidProject)
	}
	for _, s := range p.ServicesNeeded {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: empty service tag", ErrInvalidProject)
		}
	}
	return nil
}

// Client owns projects and receives match notifications.
type Client struct {
	ID           int64
	CompanyName  string
	ContactEmail string
	CreatedAt    time.Time
}

// Validate checks the fields required for persistence.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.CompanyName) == "" {
		return fmt.Errorf("%w: missing company name", ErrInvalidClient)
	}
	if !strings.Contains(c.ContactEmail, "@") {
		return fmt.Errorf("%w: invalid contact email", ErrInvalidClient)
	}
	return nil
}
