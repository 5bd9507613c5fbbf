// Package sla flags vendors whose matches have outlived their response SLA.
//
// A match is expired when it was created longer ago than the vendor's
// responseSlaHours. This measures match age, not vendor response latency.
package sla

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/expanders360/vendormatch/pkg/logger"
	"github.com/expanders360/vendormatch/pkg/metrics"
)

const (
	defaultLookback = 7 * 24 * time.Hour
	maxSLAHours     = int64(math.MaxInt64 / int64(time.Hour))
)

// threshold returns now - hours, or false when hours does not fit a Duration.
func threshold(now time.Time, hours int) (time.Time, bool) {
	if hours < 0 || int64(hours) > maxSLAHours {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(hours) * time.Hour), true
}

// Store is the read surface the scanner needs.
type Store interface {
	ListVendors(ctx context.Context, activeOnly bool) ([]model.Vendor, error)
	ListMatchesSince(ctx context.Context, since time.Time) ([]model.MatchDetail, error)
}

// Notifier receives one warning per breaching vendor.
type Notifier interface {
	NotifySLAWarning(ctx context.Context, b model.SLABreach)
}

type nopNotifier struct{}

func (nopNotifier) NotifySLAWarning(context.Context, model.SLABreach) {}

// DetectBreaches groups matches by vendor and returns, in vendor order, every
// vendor with at least one match created before now - responseSlaHours.
// Matches of vendors absent from vendors are ignored. Affected projects are
// distinct and in first-seen order.
func DetectBreaches(vendors []model.Vendor, matches []model.MatchDetail, now time.Time) []model.SLABreach {
	byVendor := make(map[int64][]model.MatchDetail)
	for _, m := range matches {
		byVendor[m.VendorID] = append(byVendor[m.VendorID], m)
	}

	var out []model.SLABreach
	for _, v := range vendors {
		ms := byVendor[v.ID]
		if len(ms) == 0 {
			continue
		}
		limit, ok := threshold(now, v.ResponseSLAHours)
		if !ok {
			continue
		}
		b := model.SLABreach{Vendor: v, Threshold: limit}
		seen := make(map[int64]struct{})
		for _, m := range ms {
			if !m.CreatedAt.Before(limit) {
				continue
			}
			b.ExpiredMatches++
			if _, dup := seen[m.ProjectID]; dup {
				continue
			}
			seen[m.ProjectID] = struct{}{}
			b.Projects = append(b.Projects, m.Project)
		}
		if b.ExpiredMatches > 0 {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Vendor.ID < out[j].Vendor.ID })
	return out
}

// Report summarizes one scan.
type Report struct {
	Vendors        int
	RecentMatches  int
	Breaches       []model.SLABreach
	ExpiredMatches int
}

// Scanner runs the SLA compliance check against a store.
type Scanner struct {
	store    Store
	notifier Notifier
	lookback time.Duration
	now      func() time.Time
	logger   logger.Logger
}

// Option applies a configuration option to the Scanner.
type Option func(*Scanner)

// WithNotifier sets where warnings go.
func WithNotifier(n Notifier) Option {
	return func(s *Scanner) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLookback sets how far back matches are considered.
func WithLookback(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.lookback = d
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the scanner logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScanner creates a scanner over store.
func NewScanner(store Store, opts ...Option) *Scanner {
	s := &Scanner{
		store:    store,
		notifier: nopNotifier{},
		lookback: defaultLookback,
		now:      time.Now,
		logger:   logger.Default().Named("sla"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan loads active vendors and recent matches, emits one warning per
// breaching vendor, and reports what it found.
func (s *Scanner) Scan(ctx context.Context) (Report, error) {
	now := s.now()

	vendors, err := s.store.ListVendors(ctx, true)
	if err != nil {
		return Report{}, fmt.Errorf("list vendors: %w", err)
	}
	matches, err := s.store.ListMatchesSince(ctx, now.Add(-s.lookback))
	if err != nil {
		return Report{}, fmt.Errorf("list recent matches: %w", err)
	}

	r := Report{
		Vendors:       len(vendors),
		RecentMatches: len(matches),
		Breaches:      DetectBreaches(vendors, matches, now),
	}
	for _, b := range r.Breaches {
		r.ExpiredMatches += b.ExpiredMatches
		metrics.RecordSLAWarning(b.ExpiredMatches)
		s.notifier.NotifySLAWarning(ctx, b)
		s.logger.Warn(ctx, "sla warning",
			logger.Int64("vendor_id", b.Vendor.ID),
			logger.String("vendor", b.Vendor.Name),
			logger.Int("expired_matches", b.ExpiredMatches),
			logger.Int("projects", len(b.Projects)),
		)
	}
	return r, nil
}
