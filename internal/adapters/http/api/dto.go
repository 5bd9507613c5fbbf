package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expanders360/vendormatch/internal/domain/model"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
)

// Date accepts "2006-01-02" or RFC 3339 and renders as "2006-01-02".
type Date struct{ time.Time }

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", ErrBadRequest)
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("%w: invalid date %q", ErrBadRequest, s)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func datePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{*t}
}

type clientRequest struct {
	CompanyName  string `json:"companyName"`
	ContactEmail string `json:"contactEmail"`
}

type clientResponse struct {
	ID           int64     `json:"id"`
	CompanyName  string    `json:"companyName"`
	ContactEmail string    `json:"contactEmail"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toClient(c *model.Client) clientResponse {
	return clientResponse{ID: c.ID, CompanyName: c.CompanyName, ContactEmail: c.ContactEmail, CreatedAt: c.CreatedAt}
}

// projectRequest is used for both create and patch; absent fields are left alone.
type projectRequest struct {
	ClientID       *int64           `json:"clientId"`
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	Country        *string          `json:"country"`
	ServicesNeeded []string         `json:"servicesNeeded"`
	Budget         *decimal.Decimal `json:"budget"`
	Status         *string          `json:"status"`
	StartDate      *Date            `json:"startDate"`
	EndDate        *Date            `json:"endDate"`
}

func (req *projectRequest) apply(p *model.Project) error {
	if req.ClientID != nil {
		p.ClientID = *req.ClientID
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Country != nil {
		p.Country = strings.TrimSpace(*req.Country)
	}
	if req.ServicesNeeded != nil {
		p.ServicesNeeded = req.ServicesNeeded
	}
	if req.Budget != nil {
		p.Budget = *req.Budget
	}
	if req.Status != nil {
		st, err := model.ParseProjectStatus(*req.Status)
		if err != nil {
			return err
		}
		p.Status = st
	}
	if req.StartDate != nil {
		t := req.StartDate.Time
		p.StartDate = &t
	}
	if req.EndDate != nil {
		t := req.EndDate.Time
		p.EndDate = &t
	}
	return nil
}

type projectResponse struct {
	ID             int64           `json:"id"`
	ClientID       int64           `json:"clientId,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Country        string          `json:"country"`
	ServicesNeeded []string        `json:"servicesNeeded"`
	Budget         decimal.Decimal `json:"budget"`
	Status         string          `json:"status"`
	StartDate      *Date           `json:"startDate,omitempty"`
	EndDate        *Date           `json:"endDate,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toProject(p *model.Project) projectResponse {
	return projectResponse{
		ID:             p.ID,
		ClientID:       p.ClientID,
		Name:           p.Name,
		Description:    p.Description,
		Country:        p.Country,
		ServicesNeeded: p.ServicesNeeded,
		Budget:         p.Budget,
		Status:         string(p.Status),
		StartDate:      datePtr(p.StartDate),
		EndDate:        datePtr(p.EndDate),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// vendorRequest is used for both create and patch; absent fields are left alone.
type vendorRequest struct {
	Name               *string          `json:"name"`
	Description        *string          `json:"description"`
	CountriesSupported []string         `json:"countriesSupported"`
	ServicesOffered    []string         `json:"servicesOffered"`
	Rating             *decimal.Decimal `json:"rating"`
	ResponseSLAHours   *int             `json:"responseSlaHours"`
	ContactEmail       *string          `json:"contactEmail"`
	Phone              *string          `json:"phone"`
	Website            *string          `json:"website"`
	IsActive           *bool            `json:"isActive"`
}

func (req *vendorRequest) apply(v *model.Vendor) {
	if req.Name != nil {
		v.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		v.Description = *req.Description
	}
	if req.CountriesSupported != nil {
		v.CountriesSupported = req.CountriesSupported
	}
	if req.ServicesOffered != nil {
		v.ServicesOffered = req.ServicesOffered
	}
	if req.Rating != nil {
		v.Rating = *req.Rating
	}
	if req.ResponseSLAHours != nil {
		v.ResponseSLAHours = *req.ResponseSLAHours
	}
	if req.ContactEmail != nil {
		v.ContactEmail = strings.TrimSpace(*req.ContactEmail)
	}
	if req.Phone != nil {
		v.Phone = *req.Phone
	}
	if req.Website != nil {
		v.Website = *req.Website
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
}

type vendorResponse struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	CountriesSupported []string        `json:"countriesSupported"`
	ServicesOffered    []string        `json:"servicesOffered"`
	Rating             decimal.Decimal `json:"rating"`
	ResponseSLAHours   int             `json:"responseSlaHours"`
	ContactEmail       string          `json:"contactEmail,omitempty"`
	Phone              string          `json:"phone,omitempty"`
	Website            string          `json:"website,omitempty"`
	IsActive           bool            `json:"isActive"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func toVendor(v *model.Vendor) vendorResponse {
	return vendorResponse{
		ID:                 v.ID,
		Name:               v.Name,
		Description:        v.Description,
		CountriesSupported: v.CountriesSupported,
		ServicesOffered:    v.ServicesOffered,
		Rating:             v.Rating,
		ResponseSLAHours:   v.ResponseSLAHours,
		ContactEmail:       v.ContactEmail,
		Phone:              v.Phone,
		Website:            v.Website,
		IsActive:           v.IsActive,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
}

type matchProject struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

type matchVendor struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Rating           decimal.Decimal `json:"rating"`
	ResponseSLAHours int             `json:"responseSlaHours"`
}

type matchResponse struct {
	ID        int64           `json:"id"`
	ProjectID int64           `json:"projectId"`
	VendorID  int64           `json:"vendorId"`
	Score     decimal.Decimal `json:"score"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Project   matchProject    `json:"project"`
	Vendor    matchVendor     `json:"vendor"`
}

func toMatches(ms []model.MatchDetail) []matchResponse {
	out := make([]matchResponse, 0, len(ms))
	for i := range ms {
		m := &ms[i]
		out = append(out, matchResponse{
			ID:        m.ID,
			ProjectID: m.ProjectID,
			VendorID:  m.VendorID,
			Score:     m.Score,
			Notes:     m.Notes,
			CreatedAt: m.CreatedAt,
			Project:   matchProject{ID: m.Project.ID, Name: m.Project.Name, Country: m.Project.Country},
			Vendor: matchVendor{ID: m.Vendor.ID, Name: m.Vendor.Name, Rating: m.Vendor.Rating,
				ResponseSLAHours: m.Vendor.ResponseSLAHours},
		})
	}
	return out
}

// decodeJSON reads a single JSON object from r's body into v, rejecting
// unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}
