// Package scoring computes the deterministic compatibility score of a vendor
// for a project.
package scoring

import (
	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Default scoring weights.
const (
	defaultOverlapWeight = 2
	defaultSLAMaxBonus   = 10
	defaultSLADayPenalty = 5
	scorePlaces          = 2
)

var hoursPerDay = decimal.NewFromInt(24)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithOverlapWeight sets the points awarded per shared service.
func WithOverlapWeight(w int64) Option {
	return func(s *Scorer) {
		if w > 0 {
			s.overlapWeight = decimal.NewFromInt(w)
		}
	}
}

// WithSLABonus sets the SLA bonus ceiling and the penalty per day of SLA.
func WithSLABonus(maxBonus, dayPenalty int64) Option {
	return func(s *Scorer) {
		if maxBonus > 0 && dayPenalty > 0 {
			s.slaMaxBonus = decimal.NewFromInt(maxBonus)
			s.slaDayPenalty = decimal.NewFromInt(dayPenalty)
		}
	}
}

// Breakdown holds the components of a score before rounding.
type Breakdown struct {
	Overlap  int
	Services decimal.Decimal
	Rating   decimal.Decimal
	SLABonus decimal.Decimal
	Total    decimal.Decimal
}

// Scorer computes match scores. It is stateless after construction and safe
// for concurrent use.
type Scorer struct {
	overlapWeight decimal.Decimal
	slaMaxBonus   decimal.Decimal
	slaDayPenalty decimal.Decimal
}

// NewScorer creates a scorer with the standard weights unless overridden.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		overlapWeight: decimal.NewFromInt(defaultOverlapWeight),
		slaMaxBonus:   decimal.NewFromInt(defaultSLAMaxBonus),
		slaDayPenalty: decimal.NewFromInt(defaultSLADayPenalty),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var std = NewScorer()

// Score computes the score of v for p with the standard weights.
func Score(p model.Project, v model.Vendor) decimal.Decimal {
	return std.Score(p, v)
}

// Score returns the breakdown total rounded half away from zero to 2 places.
func (s *Scorer) Score(p model.Project, v model.Vendor) decimal.Decimal {
	return s.Breakdown(p, v).Total
}

// Breakdown computes every component of the score for p and v.
func (s *Scorer) Breakdown(p model.Project, v model.Vendor) Breakdown {
	overlap := Overlap(p.ServicesNeeded, v.ServicesOffered)
	services := decimal.NewFromInt(int64(overlap)).Mul(s.overlapWeight)
	bonus := s.SLAWeight(v.ResponseSLAHours)
	total := services.Add(v.Rating).Add(bonus).Round(scorePlaces)
	return Breakdown{
		Overlap:  overlap,
		Services: services,
		Rating:   v.Rating,
		SLABonus: bonus,
		Total:    total,
	}
}

// SLAWeight maps response hours to a bonus that falls linearly from the
// ceiling at 0h and is floored at zero.
func (s *Scorer) SLAWeight(hours int) decimal.Decimal {
	days := decimal.NewFromInt(int64(hours)).Div(hoursPerDay)
	w := s.slaMaxBonus.Sub(days.Mul(s.slaDayPenalty))
	if w.IsNegative() {
		return decimal.Zero
	}
	return w
}

// SLAWeight applies the standard weights.
func SLAWeight(hours int) decimal.Decimal {
	return std.SLAWeight(hours)
}

// Overlap counts the entries of needed that appear in offered. Tags compare
// case-sensitively and duplicates in needed count once.
func Overlap(needed, offered []string) int {
	have := make(map[string]struct{}, len(offered))
	for _, o := range offered {
		have[o] = struct{}{}
	}
	seen := make(map[string]struct{}, len(needed))
	n := 0
	for _, s := range needed {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := have[s]; ok {
			n++
		}
	}
	return n
}
