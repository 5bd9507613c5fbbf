// Package analytics summarizes recent match activity.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/expanders360/vendormatch/internal/adapters/repository"
	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/expanders360/vendormatch/internal/domain/types"
	"github.com/shopspring/decimal"
)

// Default windows.
const (
	defaultTopWindow    = 30 * 24 * time.Hour
	defaultRecentWindow = 7 * 24 * time.Hour
	defaultTopN         = 3
)

// Store is the read surface analytics needs.
type Store interface {
	ListMatchesSince(ctx context.Context, since time.Time) ([]model.MatchDetail, error)
	Totals(ctx context.Context, since time.Time) (repository.Totals, error)
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTopWindow sets the lookback for per-country rankings.
func WithTopWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.topWindow = d
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service computes analytics reports.
type Service struct {
	store        Store
	now          func() time.Time
	topWindow    time.Duration
	recentWindow time.Duration
	topN         int
}

// NewService creates an analytics service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		now:          time.Now,
		topWindow:    defaultTopWindow,
		recentWindow: defaultRecentWindow,
		topN:         defaultTopN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TopVendorsByCountry ranks vendors per country over the top window.
func (s *Service) TopVendorsByCountry(ctx context.Context) ([]types.CountryTopVendors, error) {
	matches, err := s.store.ListMatchesSince(ctx, s.now().Add(-s.topWindow))
	if err != nil {
		return nil, fmt.Errorf("list recent matches: %w", err)
	}
	return TopVendors(matches, s.topN), nil
}

// General returns system-wide totals with activity over the recent window.
func (s *Service) General(ctx context.Context) (types.GeneralAnalytics, error) {
	t, err := s.store.Totals(ctx, s.now().Add(-s.recentWindow))
	if err != nil {
		return types.GeneralAnalytics{}, fmt.Errorf("aggregate totals: %w", err)
	}
	return types.GeneralAnalytics{
		TotalProjects:  t.Projects,
		ActiveProjects: t.ActiveProjects,
		TotalMatches:   t.Matches,
		AvgMatchScore:  t.AverageScore,
		RecentActivity: t.RecentMatches,
	}, nil
}

// TopVendors groups matches by project country and keeps the n vendors with
// the highest average score in each. Countries sort ascending; ties on the
// average go to the lower vendor id.
func TopVendors(matches []model.MatchDetail, n int) []types.CountryTopVendors {
	type acc struct {
		name  string
		sum   decimal.Decimal
		count int
	}
	byCountry := make(map[string]map[int64]*acc)
	for _, m := range matches {
		country := m.Project.Country
		vendors, ok := byCountry[country]
		if !ok {
			vendors = make(map[int64]*acc)
			byCountry[country] = vendors
		}
		a, ok := vendors[m.VendorID]
		if !ok {
			a = &acc{name: m.Vendor.Name, sum: decimal.Zero}
			vendors[m.VendorID] = a
		}
		a.sum = a.sum.Add(m.Score)
		a.count++
	}

	out := make([]types.CountryTopVendors, 0, len(byCountry))
	for country, vendors := range byCountry {
		ranks := make([]types.VendorRank, 0, len(vendors))
		for id, a := range vendors {
			ranks = append(ranks, types.VendorRank{
				VendorID:      id,
				VendorName:    a.name,
				AvgMatchScore: a.sum.Div(decimal.NewFromInt(int64(a.count))).Round(2),
				MatchCount:    a.count,
			})
		}
		sort.Slice(ranks, func(i, j int) bool {
			if c := ranks[i].AvgMatchScore.Cmp(ranks[j].AvgMatchScore); c != 0 {
				return c > 0
			}
			return ranks[i].VendorID < ranks[j].VendorID
		})
		if n > 0 && len(ranks) > n {
			ranks = ranks[:n]
		}
		out = append(out, types.CountryTopVendors{Country: country, TopVendors: ranks})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out
}
