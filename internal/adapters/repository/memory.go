package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-process Store. Records are copied on the way in and out
// so callers never share slices with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	clients  map[int64]model.Client
	projects map[int64]model.Project
	vendors  map[int64]model.Vendor
	matches  map[int64]model.Match
	nextID   int64
	closed   atomic.Bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		now:      o.now,
		clients:  make(map[int64]model.Client),
		projects: make(map[int64]model.Project),
		vendors:  make(map[int64]model.Vendor),
		matches:  make(map[int64]model.Match),
	}
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *MemoryStore) check(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

// Ping reports whether the store is open.
func (s *MemoryStore) Ping(ctx context.Context) error { return s.check(ctx) }

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}

// CreateClient inserts c and assigns its ID.
func (s *MemoryStore) CreateClient(ctx context.Context, c *model.Client) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.clients {
		if existing.ContactEmail == c.ContactEmail {
			return fmt.Errorf("client %s: %w", c.ContactEmail, ErrConflict)
		}
	}
	c.ID = s.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.stamp()
	}
	s.clients[c.ID] = *c
	return nil
}

// GetClient returns the client with id.
func (s *MemoryStore) GetClient(ctx context.Context, id int64) (model.Client, error) {
	if err := s.check(ctx); err != nil {
		return model.Client{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return model.Client{}, fmt.Errorf("client %d: %w", id, ErrNotFound)
	}
	return c, nil
}

// ListClients returns every client ordered by id.
func (s *MemoryStore) ListClients(ctx context.Context) ([]model.Client, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateProject inserts p and assigns its ID.
func (s *MemoryStore) CreateProject(ctx context.Context, p *model.Project) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ClientID != 0 {
		if _, ok := s.clients[p.ClientID]; !ok {
			return fmt.Errorf("client %d: %w", p.ClientID, ErrNotFound)
		}
	}
	now := s.stamp()
	p.ID = s.id()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = model.StatusActive
	}
	s.projects[p.ID] = copyProject(*p)
	return nil
}

// GetProject returns the project with id.
func (s *MemoryStore) GetProject(ctx context.Context, id int64) (model.Project, error) {
	if err := s.check(ctx); err != nil {
		return model.Project{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return model.Project{}, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return copyProject(p), nil
}

// ListProjects returns projects matching f ordered by id.
func (s *MemoryStore) ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Project
	for _, p := range s.projects {
		if f.ClientID != 0 && p.ClientID != f.ClientID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, copyProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateProject overwrites the mutable fields of p.
func (s *MemoryStore) UpdateProject(ctx context.Context, p *model.Project) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.projects[p.ID]
	if !ok {
		return fmt.Errorf("project %d: %w", p.ID, ErrNotFound)
	}
	if p.ClientID != 0 {
		if _, ok := s.clients[p.ClientID]; !ok {
			return fmt.Errorf("client %d: %w", p.ClientID, ErrNotFound)
		}
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = s.stamp()
	s.projects[p.ID] = copyProject(*p)
	return nil
}

// DeleteProject removes the project and its matches.
func (s *MemoryStore) DeleteProject(ctx context.Context, id int64) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	delete(s.projects, id)
	for mid, m := range s.matches {
		if m.ProjectID == id {
			delete(s.matches, mid)
		}
	}
	return nil
}

// CreateVendor inserts v and assigns its ID.
func (s *MemoryStore) CreateVendor(ctx context.Context, v *model.Vendor) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.stamp()
	v.ID = s.id()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	s.vendors[v.ID] = copyVendor(*v)
	return nil
}

// GetVendor returns the vendor with id.
func (s *MemoryStore) GetVendor(ctx context.Context, id int64) (model.Vendor, error) {
	if err := s.check(ctx); err != nil {
		return model.Vendor{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vendors[id]
	if !ok {
		return model.Vendor{}, fmt.Errorf("vendor %d: %w", id, ErrNotFound)
	}
	return copyVendor(v), nil
}

// ListVendors returns vendors ordered by id.
func (s *MemoryStore) ListVendors(ctx context.Context, activeOnly bool) ([]model.Vendor, error) {
	return s.selectVendors(ctx, func(v *model.Vendor) bool { return !activeOnly || v.IsActive })
}

// FindEligibleVendors returns active vendors covering country with at least
// one service in common with services.
func (s *MemoryStore) FindEligibleVendors(ctx context.Context, country string, services []string) ([]model.Vendor, error) {
	return s.selectVendors(ctx, func(v *model.Vendor) bool { return v.EligibleFor(country, services) })
}

func (s *MemoryStore) selectVendors(ctx context.Context, keep func(*model.Vendor) bool) ([]model.Vendor, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Vendor
	for _, v := range s.vendors {
		if keep(&v) {
			out = append(out, copyVendor(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateVendor overwrites the mutable fields of v.
func (s *MemoryStore) UpdateVendor(ctx context.Context, v *model.Vendor) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.vendors[v.ID]
	if !ok {
		return fmt.Errorf("vendor %d: %w", v.ID, ErrNotFound)
	}
	v.CreatedAt = old.CreatedAt
	v.UpdatedAt = s.stamp()
	s.vendors[v.ID] = copyVendor(*v)
	return nil
}

// DeleteVendor removes the vendor and its matches.
func (s *MemoryStore) DeleteVendor(ctx context.Context, id int64) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vendors[id]; !ok {
		return fmt.Errorf("vendor %d: %w", id, ErrNotFound)
	}
	delete(s.vendors, id)
	for mid, m := range s.matches {
		if m.VendorID == id {
			delete(s.matches, mid)
		}
	}
	return nil
}

// CreateMatch inserts m and assigns its ID and creation time.
func (s *MemoryStore) CreateMatch(ctx context.Context, m *model.Match) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[m.ProjectID]; !ok {
		return fmt.Errorf("match %d/%d: %w", m.ProjectID, m.VendorID, ErrNotFound)
	}
	if _, ok := s.vendors[m.VendorID]; !ok {
		return fmt.Errorf("match %d/%d: %w", m.ProjectID, m.VendorID, ErrNotFound)
	}
	for _, existing := range s.matches {
		if existing.ProjectID == m.ProjectID && existing.VendorID == m.VendorID {
			return fmt.Errorf("match %d/%d: %w", m.ProjectID, m.VendorID, ErrConflict)
		}
	}
	m.ID = s.id()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.stamp()
	}
	s.matches[m.ID] = *m
	return nil
}

// ReplaceMatches swaps the project's match set for ms under one lock. Every
// row is validated before anything changes.
func (s *MemoryStore) ReplaceMatches(ctx context.Context, projectID int64, ms []model.Match) (int64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]struct{}, len(ms))
	for _, m := range ms {
		if m.ProjectID != projectID {
			return 0, fmt.Errorf("match %d/%d outside project %d: %w", m.ProjectID, m.VendorID, projectID, ErrConflict)
		}
		if _, ok := s.projects[m.ProjectID]; !ok {
			return 0, fmt.Errorf("match %d/%d: %w", m.ProjectID, m.VendorID, ErrNotFound)
		}
		if _, ok := s.vendors[m.VendorID]; !ok {
			return 0, fmt.Errorf("match %d/%d: %w", m.ProjectID, m.VendorID, ErrNotFound)
		}
		if _, dup := seen[m.VendorID]; dup {
			return 0, fmt.Errorf("match %d/%d: %w", m.ProjectID, m.VendorID, ErrConflict)
		}
		seen[m.VendorID] = struct{}{}
	}

	var removed int64
	for id, m := range s.matches {
		if m.ProjectID == projectID {
			delete(s.matches, id)
			removed++
		}
	}
	stamp := s.stamp()
	for i := range ms {
		ms[i].ID = s.id()
		if ms[i].CreatedAt.IsZero() {
			ms[i].CreatedAt = stamp
		}
		s.matches[ms[i].ID] = ms[i]
	}
	return removed, nil
}

// ListMatchesByProject returns the project's matches, best score first.
func (s *MemoryStore) ListMatchesByProject(ctx context.Context, projectID int64) ([]model.MatchDetail, error) {
	out, err := s.selectMatches(ctx, func(m model.Match) bool { return m.ProjectID == projectID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Score.Cmp(out[j].Score); c != 0 {
			return c > 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListMatches returns every match, newest first.
func (s *MemoryStore) ListMatches(ctx context.Context) ([]model.MatchDetail, error) {
	out, err := s.selectMatches(ctx, func(model.Match) bool { return true })
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	return out, nil
}

// ListMatchesSince returns matches created at or after since, newest first.
func (s *MemoryStore) ListMatchesSince(ctx context.Context, since time.Time) ([]model.MatchDetail, error) {
	out, err := s.selectMatches(ctx, func(m model.Match) bool { return !m.CreatedAt.Before(since) })
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	return out, nil
}

// Totals aggregates project and match counts.
func (s *MemoryStore) Totals(ctx context.Context, since time.Time) (Totals, error) {
	if err := s.check(ctx); err != nil {
		return Totals{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := Totals{Projects: int64(len(s.projects)), Matches: int64(len(s.matches)), AverageScore: decimal.Zero}
	for _, p := range s.projects {
		if p.Status == model.StatusActive {
			t.ActiveProjects++
		}
	}
	sum := decimal.Zero
	for _, m := range s.matches {
		sum = sum.Add(m.Score)
		if !m.CreatedAt.Before(since) {
			t.RecentMatches++
		}
	}
	if t.Matches > 0 {
		t.AverageScore = sum.Div(decimal.NewFromInt(t.Matches)).Round(2)
	}
	return t, nil
}

func (s *MemoryStore) selectMatches(ctx context.Context, keep func(model.Match) bool) ([]model.MatchDetail, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.MatchDetail
	for _, m := range s.matches {
		if !keep(m) {
			continue
		}
		p := s.projects[m.ProjectID]
		d := model.MatchDetail{
			Match:   m,
			Project: copyProject(p),
			Vendor:  copyVendor(s.vendors[m.VendorID]),
		}
		if c, ok := s.clients[p.ClientID]; ok {
			d.ClientEmail = c.ContactEmail
		}
		out = append(out, d)
	}
	return out, nil
}

func sortNewestFirst(out []model.MatchDetail) {
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
}

func copyProject(p model.Project) model.Project {
	p.ServicesNeeded = append([]string(nil), p.ServicesNeeded...)
	return p
}

func copyVendor(v model.Vendor) model.Vendor {
	v.CountriesSupported = append([]string(nil), v.CountriesSupported...)
	v.ServicesOffered = append([]string(nil), v.ServicesOffered...)
	return v
}

var _ Store = (*MemoryStore)(nil)
