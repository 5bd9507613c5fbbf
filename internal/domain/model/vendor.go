package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultResponseSLAHours is applied when a vendor is created without an SLA.
const DefaultResponseSLAHours = 24

// MaxResponseSLAHours caps the SLA at one year.
const MaxResponseSLAHours = 24 * 365

var maxRating = decimal.NewFromInt(5)

// Vendor is an independently administered service provider.
type Vendor struct {
	ID                 int64
	Name               string
	Description        string
	CountriesSupported []string
	ServicesOffered    []string
	Rating             decimal.Decimal
	ResponseSLAHours   int
	ContactEmail       string
	Phone              string
	Website            string
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks the fields required for persistence. SLA hours outside
// 1..MaxResponseSLAHours are rejected here so scoring never sees them.
func (v *Vendor) Validate() error {
	switch {
	case strings.TrimSpace(v.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalidVendor)
	case len(v.CountriesSupported) == 0:
		return fmt.Errorf("%w: at least one country is required", ErrInvalidVendor)
	case len(v.ServicesOffered) == 0:
		return fmt.Errorf("%w: at least one service is required", ErrInvalidVendor)
	case v.Rating.IsNegative() || v.Rating.GreaterThan(maxRating):
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidVendor)
	case v.ResponseSLAHours <= 0:
		return fmt.Errorf("%w: response SLA hours must be positive", ErrInvalidVendor)
	case v.ResponseSLAHours > MaxResponseSLAHours:
		return fmt.Errorf("%w: response SLA hours must not exceed %d", ErrInvalidVendor, MaxResponseSLAHours)
	case v.ContactEmail != "" && !strings.Contains(v.ContactEmail, "@"):
		return fmt.Errorf("%w: invalid contact email", ErrInvalidVendor)
	}
	return nil
}

// Supports reports whether the vendor operates in country.
func (v *Vendor) Supports(country string) bool {
	for _, c := range v.CountriesSupported {
		if c == country {
			return true
		}
	}
	return false
}

// OffersAny reports whether the vendor offers at least one of services.
func (v *Vendor) OffersAny(services []string) bool {
	for _, s := range services {
		for _, o := range v.ServicesOffered {
			if s == o {
				return true
			}
		}
	}
	return false
}

// EligibleFor reports whether the vendor can be matched against a project in
// country needing services: active, country supported, one service overlap.
func (v *Vendor) EligibleFor(country string, services []string) bool {
	return v.IsActive && v.Supports(country) && v.OffersAny(services)
}
